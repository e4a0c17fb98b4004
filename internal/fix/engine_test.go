package fix

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

const mainURI = "file:///work/Main.elm"

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/work", 0o755); err != nil {
		t.Fatal(err)
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func insertChange(id string, line int, text string, fixAll bool) Change {
	return Change{
		ID:     id,
		Title:  id,
		FixAll: fixAll,
		Edit:   NewWorkspaceEdit(mainURI, TextEdit{Range: span(line, 0, line, 0), NewText: text}),
	}
}

func TestApplyOncePrefersPreferred(t *testing.T) {
	fs := memFS(t, map[string]string{"/work/Main.elm": "a = 1\nb = 2\n"})
	first := insertChange("first", 0, "-- first\n", false)
	preferred := insertChange("preferred", 1, "-- preferred\n", false)
	preferred.Preferred = true

	res, err := Apply(fs, []Change{first, preferred}, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "preferred" {
		t.Fatalf("applied %+v", res.Applied)
	}
	if got := readFile(t, fs, "/work/Main.elm"); got != "a = 1\n-- preferred\nb = 2\n" {
		t.Errorf("file = %q", got)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].Path != "/work/Main.elm" || res.FileChanges[0].EditCount != 1 {
		t.Errorf("file changes %+v", res.FileChanges)
	}
}

func TestApplyAllSkipsConflicts(t *testing.T) {
	fs := memFS(t, map[string]string{"/work/Main.elm": "a = 1\nb = 2\n"})
	single := Change{
		ID:   "single",
		Edit: NewWorkspaceEdit(mainURI, TextEdit{Range: span(0, 4, 0, 5), NewText: "10"}),
	}
	all := Change{
		ID:     "all",
		FixAll: true,
		Edit: NewWorkspaceEdit(mainURI,
			TextEdit{Range: span(0, 4, 0, 5), NewText: "100"},
			TextEdit{Range: span(1, 4, 1, 5), NewText: "200"},
		),
	}
	tail := insertChange("tail", 2, "c = 3\n", false)

	res, err := Apply(fs, []Change{single, all, tail}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 || res.Applied[0].ID != "all" || res.Applied[1].ID != "tail" {
		t.Fatalf("applied %+v", res.Applied)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "single" {
		t.Fatalf("skipped %+v", res.Skipped)
	}
	if got := readFile(t, fs, "/work/Main.elm"); got != "a = 100\nb = 200\nc = 3\n" {
		t.Errorf("file = %q", got)
	}
}

func TestApplyAcrossFilesAndShiftedOffsets(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/work/Main.elm":  "x = 1\ny = 2\n",
		"/work/Other.elm": "z = 3\n",
	})
	grow := insertChange("grow", 0, "-- header\n-- more\n", false)
	both := Change{ID: "both"}
	both.Edit.Add(mainURI, TextEdit{Range: span(1, 4, 1, 5), NewText: "22"})
	both.Edit.Add("file:///work/Other.elm", TextEdit{Range: span(0, 4, 0, 5), NewText: "33"})

	res, err := Apply(fs, []Change{grow, both}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied %+v skipped %+v", res.Applied, res.Skipped)
	}
	if got := readFile(t, fs, "/work/Main.elm"); got != "-- header\n-- more\nx = 1\ny = 22\n" {
		t.Errorf("main = %q", got)
	}
	if got := readFile(t, fs, "/work/Other.elm"); got != "z = 33\n" {
		t.Errorf("other = %q", got)
	}
	if len(res.FileChanges) != 2 || res.FileChanges[0].Path != "/work/Main.elm" {
		t.Errorf("file changes %+v", res.FileChanges)
	}
}

func TestApplyNoFixes(t *testing.T) {
	fs := memFS(t, map[string]string{"/work/Main.elm": "a = 1\n"})

	if _, err := Apply(fs, nil, ApplyOptions{Mode: ApplyModeAll}); !errors.Is(err, ErrNoFixes) {
		t.Errorf("empty input: %v", err)
	}

	res, err := Apply(fs, []Change{insertChange("one", 0, "x", false)}, ApplyOptions{Mode: ApplyModeID, TargetID: "two"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("missing id: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Errorf("skipped %+v", res.Skipped)
	}

	onlyAll := []Change{insertChange("all", 0, "x", true)}
	if _, err := Apply(fs, onlyAll, ApplyOptions{Mode: ApplyModeOnce}); !errors.Is(err, ErrNoFixes) {
		t.Errorf("fix-all in once mode: %v", err)
	}

	missing := []Change{{ID: "gone", Edit: NewWorkspaceEdit("file:///work/Gone.elm", TextEdit{NewText: "x"})}}
	res, err = Apply(fs, missing, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 {
		t.Errorf("unreadable file: err=%v skipped=%+v", err, res.Skipped)
	}
	if got := readFile(t, fs, "/work/Main.elm"); got != "a = 1\n" {
		t.Errorf("file must be untouched, got %q", got)
	}
}
