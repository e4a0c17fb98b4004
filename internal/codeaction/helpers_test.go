package codeaction

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/source"
	"elmls/internal/syntax"
	"elmls/internal/types"
)

type memForest struct {
	docs map[string]*Snapshot
}

func newForest(snaps ...*Snapshot) *memForest {
	f := &memForest{docs: map[string]*Snapshot{}}
	for _, s := range snaps {
		f.docs[s.URI] = s
	}
	return f
}

func (f *memForest) Snapshot(uri string) (*Snapshot, bool) {
	s, ok := f.docs[uri]
	return s, ok
}

func (f *memForest) SnapshotByModule(module string) (*Snapshot, bool) {
	for _, s := range f.docs {
		if s.Tree.ModuleName() == module {
			return s, true
		}
	}
	return nil, false
}

func (f *memForest) Modules() []string {
	var out []string
	for _, s := range f.docs {
		if name := s.Tree.ModuleName(); name != "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func snapshot(uri, text string, diags ...diag.Diagnostic) *Snapshot {
	tree := syntax.ParseText(uri, text)
	return &Snapshot{
		URI:         uri,
		Tree:        tree,
		Checker:     types.Check(tree, nil),
		Diagnostics: diags,
	}
}

// spanOf returns the range of the first occurrence of needle.
func spanOf(t *testing.T, s *Snapshot, needle string) source.Range {
	t.Helper()
	i := strings.Index(string(s.Tree.File.Content), needle)
	require.GreaterOrEqual(t, i, 0, "needle %q not found", needle)
	return s.Tree.File.Range(source.Span{Start: uint32(i), End: uint32(i + len(needle))})
}

// pointIn returns an empty range one character into needle.
func pointIn(t *testing.T, s *Snapshot, needle string) source.Range {
	t.Helper()
	r := spanOf(t, s, needle)
	r.Start.Character++
	r.End = r.Start
	return r
}

// stubProvider inserts a marker at the diagnostic start.
type stubProvider struct {
	id     string
	codes  []string
	fixAll bool
	calls  int
}

func (p *stubProvider) ID() string      { return p.id }
func (p *stubProvider) Codes() []string { return p.codes }

func (p *stubProvider) CodeActions(ctx *Context) []CodeAction {
	return []CodeAction{NewQuickFix("fix "+p.id, ctx.URI, fix.TextEdit{
		Range:   source.Range{Start: ctx.Range.Start, End: ctx.Range.Start},
		NewText: "!",
	})}
}

func (p *stubProvider) FixAll(ctx *Context) (CodeAction, bool) {
	p.calls++
	if !p.fixAll {
		return CodeAction{}, false
	}
	var edits []fix.TextEdit
	for _, d := range ctx.WithCode(ctx.Diagnostic.Code.String()) {
		edits = append(edits, fix.TextEdit{Range: source.Range{Start: d.Range.Start, End: d.Range.Start}, NewText: "!"})
	}
	a := NewQuickFix("fix all "+p.id, ctx.URI, edits...)
	return a, true
}

type staticSource struct {
	title string
}

func (s staticSource) OnCodeAction(_ context.Context, req Request) []CodeAction {
	return []CodeAction{{Title: s.title, Kind: KindQuickFix}}
}

func applyAction(t *testing.T, s *Snapshot, a CodeAction) string {
	t.Helper()
	require.NotNil(t, a.Edit)
	out, err := fix.ApplyEdits(string(s.Tree.File.Content), a.Edit.Changes[s.URI])
	require.NoError(t, err)
	return out
}

func titles(actions []CodeAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Title)
	}
	return out
}
