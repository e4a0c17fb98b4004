package workspace

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmls/internal/codeaction"
	"elmls/internal/codeaction/providers"
	"elmls/internal/diag"
	"elmls/internal/fix"
)

const (
	utilURI = "file:///proj/src/Util.elm"
	mainURI = "file:///proj/src/Main.elm"
)

const utilText = `module Util exposing (double)


double : Int -> Int
double n =
    n * 2
`

const mainText = `module Main exposing (main)

import Util exposing (double)


main : Int
main =
    double 21
`

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func codesOf(ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code.String())
	}
	return out
}

func loadProject(t *testing.T) *Forest {
	t.Helper()
	fs := memFs(t, map[string]string{
		"/proj/src/Util.elm":                utilText,
		"/proj/src/Main.elm":                mainText,
		"/proj/src/notes.txt":               "not elm",
		"/proj/src/elm-stuff/Generated.elm": "module Generated exposing (..)\n",
		"/proj/src/.hidden/Ignored.elm":     "module Ignored exposing (..)\n",
	})
	f := New(fs)
	n, err := f.Load(context.Background(), "/proj/src")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	return f
}

func TestListFiles(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/p/src/B.elm":           "",
		"/p/src/A.elm":           "",
		"/p/src/elm-stuff/C.elm": "",
		"/p/src/.git/D.elm":      "",
		"/p/tests/T.elm":         "",
	})
	files, err := ListFiles(fs, "/p/src", "/p/tests", "/p/missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/src/A.elm", "/p/src/B.elm", "/p/tests/T.elm"}, files)
}

func TestLoadResolvesImports(t *testing.T) {
	f := loadProject(t)

	main, err := f.Document(mainURI)
	require.NoError(t, err)
	assert.Empty(t, main.Diagnostics)
	assert.Equal(t, "Main", main.Module())
	assert.False(t, main.Open)

	snap, ok := f.SnapshotByModule("Util")
	require.True(t, ok)
	assert.Equal(t, utilURI, snap.URI)
	assert.NotNil(t, snap.Checker)

	_, ok = f.SnapshotByModule("Generated")
	assert.False(t, ok)
	_, err = f.Document("file:///proj/src/Nope.elm")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestOpenOverridesDisk(t *testing.T) {
	f := loadProject(t)
	ctx := context.Background()

	broken := `module Main exposing (main)

import Util exposing (double)


main : Int
main =
    double "x"
`
	doc := f.Open(ctx, mainURI, 3, broken)
	require.NotNil(t, doc)
	assert.True(t, doc.Open)
	assert.Equal(t, 3, doc.Version)
	assert.Contains(t, codesOf(doc.Diagnostics), diag.CodeTypeMismatch)

	f.Close(ctx, mainURI)
	reverted, err := f.Document(mainURI)
	require.NoError(t, err)
	assert.False(t, reverted.Open)
	assert.Equal(t, mainText, reverted.Text())
	assert.Empty(t, reverted.Diagnostics)
}

func TestUtilChangeRechecksImporters(t *testing.T) {
	f := loadProject(t)
	ctx := context.Background()

	f.Change(ctx, utilURI, 2, `module Util exposing (double)


double : String -> String
double s =
    s ++ s
`)
	main, err := f.Document(mainURI)
	require.NoError(t, err)
	assert.Contains(t, codesOf(main.Diagnostics), diag.CodeTypeMismatch)
}

func TestCloseUnsavedDocument(t *testing.T) {
	f := loadProject(t)
	ctx := context.Background()
	uri := "file:///proj/src/Scratch.elm"

	f.Open(ctx, uri, 1, "module Scratch exposing (..)\n\n\nx =\n    1\n")
	_, ok := f.Snapshot(uri)
	require.True(t, ok)

	f.Close(ctx, uri)
	_, ok = f.Snapshot(uri)
	assert.False(t, ok)
	assert.Len(t, f.Documents(), 2)
}

func TestImportCycle(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/c/A.elm": "module A exposing (a)\n\nimport B\n\n\na : Int\na =\n    1\n",
		"/c/B.elm": "module B exposing (b)\n\nimport A\n\n\nb : Int\nb =\n    2\n",
	})
	f := New(fs)
	_, err := f.Load(context.Background(), "/c")
	require.NoError(t, err)

	b, err := f.Document("file:///c/B.elm")
	require.NoError(t, err)
	assert.Contains(t, codesOf(b.Diagnostics), diag.CodeUnresolvedImport)
}

func TestDispatcherOverForest(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/w/Util.elm": utilText,
		"/w/Main.elm": `module Main exposing (main)

import Util


main : Int
main =
    (1)
`,
	})
	f := New(fs)
	_, err := f.Load(context.Background(), "/w")
	require.NoError(t, err)

	uri := "file:///w/Main.elm"
	doc, err := f.Document(uri)
	require.NoError(t, err)
	require.Equal(t, []string{diag.CodeUnusedImport, diag.CodeUnnecessaryParens}, codesOf(doc.Diagnostics))

	d := codeaction.NewDispatcher(providers.NewRegistry(), f, codeaction.WithSources(f.Sources()...))
	var titles []string
	var edits []fix.TextEdit
	for _, dg := range doc.Diagnostics {
		actions := d.ComputeActions(context.Background(), codeaction.Request{
			URI:         uri,
			Range:       dg.Range,
			Diagnostics: []diag.Diagnostic{dg},
		})
		for _, a := range actions {
			if a.Kind != codeaction.KindQuickFix {
				continue
			}
			titles = append(titles, a.Title)
			edits = append(edits, a.Edit.Changes[uri]...)
		}
	}
	assert.Equal(t, []string{"Remove unused import `Util`", "Remove unnecessary parentheses"}, titles)

	out, err := fix.ApplyEdits(doc.Text(), edits)
	require.NoError(t, err)
	assert.Equal(t, "module Main exposing (main)\n\n\n\nmain : Int\nmain =\n    1\n", out)
}
