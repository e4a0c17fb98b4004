package lsp

import (
	"testing"

	"elmls/internal/source"
)

func rng(sl, sc, el, ec int) *source.Range {
	return &source.Range{
		Start: source.Position{Line: sl, Character: sc},
		End:   source.Position{Line: el, Character: ec},
	}
}

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []textDocumentContentChangeEvent
		want    string
	}{
		{
			name:    "full replace",
			text:    "old",
			changes: []textDocumentContentChangeEvent{{Text: "new"}},
			want:    "new",
		},
		{
			name:    "insert",
			text:    "main =\n    1\n",
			changes: []textDocumentContentChangeEvent{{Range: rng(1, 4, 1, 4), Text: "negate "}},
			want:    "main =\n    negate 1\n",
		},
		{
			name: "sequential edits see earlier ones",
			text: "a\nb\n",
			changes: []textDocumentContentChangeEvent{
				{Range: rng(0, 0, 1, 0), Text: ""},
				{Range: rng(0, 1, 0, 1), Text: "c"},
			},
			want: "bc\n",
		},
		{
			name:    "utf-16 columns",
			text:    "s = \"𝄞x\"\n",
			changes: []textDocumentContentChangeEvent{{Range: rng(0, 7, 0, 8), Text: "y"}},
			want:    "s = \"𝄞y\"\n",
		},
		{
			name:    "range past the end clamps",
			text:    "ab",
			changes: []textDocumentContentChangeEvent{{Range: rng(5, 0, 9, 0), Text: "c"}},
			want:    "abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyChanges(tt.text, tt.changes); got != tt.want {
				t.Errorf("applyChanges = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootFromParams(t *testing.T) {
	tests := []struct {
		name   string
		params initializeParams
		want   string
	}{
		{name: "root uri", params: initializeParams{RootURI: "file:///ws/a", RootPath: "/other"}, want: "/ws/a"},
		{name: "root path", params: initializeParams{RootPath: "/ws/b/../c"}, want: "/ws/c"},
		{name: "workspace folder", params: initializeParams{WorkspaceFolders: []workspaceFolder{{URI: "file:///ws/d"}}}, want: "/ws/d"},
		{name: "none", params: initializeParams{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rootFromParams(tt.params); got != tt.want {
				t.Errorf("rootFromParams = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalURI(t *testing.T) {
	if got := canonicalURI("file:///ws/src/../src/Main.elm"); got != "file:///ws/src/Main.elm" {
		t.Errorf("canonicalURI = %q", got)
	}
	if got := canonicalURI("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("non-file URIs pass through, got %q", got)
	}
}
