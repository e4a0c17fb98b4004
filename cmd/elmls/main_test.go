package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"elmls/internal/analysis"
	"elmls/internal/diagfmt"
)

const utilSource = `module Util exposing (double)


double : Int -> Int
double n =
    n * 2
`

const unusedImportSource = `module Main exposing (main)

import Util


main : Int
main =
    1
`

// resetFlags restores every flag to its default; cobra keeps values
// between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if _, ok := files["elmls.toml"]; !ok {
		files["elmls.toml"] = "[project]\nsource_dirs = [\"src\"]\n"
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCheckReportsWarnings(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": unusedImportSource,
	})
	out, err := execute(t, "check", "--color", "off", root)
	if err != nil {
		t.Fatalf("warnings must not fail the check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "unused_import") {
		t.Errorf("expected unused_import in output:\n%s", out)
	}
	if !strings.Contains(out, "1 warning") {
		t.Errorf("expected a summary line:\n%s", out)
	}
}

func TestCheckTimings(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": unusedImportSource,
	})
	out, err := execute(t, "check", "--color", "off", "--timings", root)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{"timings:", "read", "2 files", "analyse", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("timings miss %q:\n%s", want, out)
		}
	}
}

func TestCheckJSONAndErrors(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": "module Main exposing (main)\n\nimport Util exposing (double)\n\n\nmain : Int\nmain =\n    double \"x\"\n",
	})
	out, err := execute(t, "check", "--format", "json", filepath.Join(root, "src", "Main.elm"))
	if err == nil || !strings.Contains(err.Error(), "1 error(s)") {
		t.Fatalf("expected the check to fail with one error, got %v", err)
	}
	var payload diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if payload.Count != 1 || payload.Diagnostics[0].Code != "type_mismatch" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestCheckUsesDiskCache(t *testing.T) {
	root := writeProject(t, map[string]string{
		"elmls.toml":   "[project]\nsource_dirs = [\"src\"]\n\n[cache]\nenabled = true\ndir = \".cache\"\n",
		"src/Util.elm": utilSource,
		"src/Main.elm": unusedImportSource,
	})
	first, err := execute(t, "check", "--color", "off", root)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	entries, err := filepath.Glob(filepath.Join(root, ".cache", "diags", "*.mp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected one cache entry per file, got %d", len(entries))
	}
	second, err := execute(t, "check", "--color", "off", root)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if first != second {
		t.Errorf("cached output differs:\n%s\nvs\n%s", first, second)
	}
}

func TestFixAllRewritesFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": unusedImportSource,
	})
	mainPath := filepath.Join(root, "src", "Main.elm")

	out, err := execute(t, "fix", "--all", "--preview", root)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "Would apply") {
		t.Errorf("expected a preview summary:\n%s", out)
	}
	if readFile(t, mainPath) != unusedImportSource {
		t.Fatal("preview must not touch the disk")
	}

	out, err = execute(t, "fix", "--all", root)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "Remove unused import `Util`") {
		t.Errorf("expected the applied fix to be listed:\n%s", out)
	}
	if strings.Contains(readFile(t, mainPath), "import Util") {
		t.Errorf("import not removed:\n%s", readFile(t, mainPath))
	}
}

func TestFixIDRequiresFile(t *testing.T) {
	root := writeProject(t, map[string]string{"src/Main.elm": unusedImportSource})
	if _, err := execute(t, "fix", "--id", "remove_import", root); err == nil {
		t.Fatal("expected --id on a directory to fail")
	}
	if _, err := execute(t, "fix", "--all", "--once", root); err == nil {
		t.Fatal("expected --all with --once to fail")
	}
}

func TestActionsAtPosition(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": unusedImportSource,
	})
	out, err := execute(t, "actions", "--color", "off", "--line", "3", "--col", "8", filepath.Join(root, "src", "Main.elm"))
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if !strings.Contains(out, "Remove unused import `Util`") {
		t.Errorf("expected the import fix:\n%s", out)
	}

	out, err = execute(t, "actions", "--format", "json", "--line", "3", "--col", "8", filepath.Join(root, "src", "Main.elm"))
	if err != nil {
		t.Fatalf("actions json: %v", err)
	}
	var actions []map[string]any
	if err := json.Unmarshal([]byte(out), &actions); err != nil {
		t.Fatalf("decode actions: %v\n%s", err, out)
	}
	if len(actions) == 0 {
		t.Error("expected actions")
	}
}

func TestMoveDeclaration(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/Util.elm": utilSource,
		"src/Main.elm": "module Main exposing (main)\n\nimport Util\n\n\nmain : Int\nmain =\n    Util.double answer\n\n\nanswer : Int\nanswer =\n    21\n",
	})
	mainPath := filepath.Join(root, "src", "Main.elm")
	utilPath := filepath.Join(root, "src", "Util.elm")

	if _, err := execute(t, "move", mainPath, "answer", "Nope"); err == nil {
		t.Fatal("expected an unknown module to fail")
	}
	out, err := execute(t, "move", mainPath, "answer", "Util")
	if err != nil {
		t.Fatalf("move: %v\n%s", err, out)
	}
	util := readFile(t, utilPath)
	if !strings.Contains(util, "answer : Int\nanswer =\n    21\n") {
		t.Errorf("declaration not moved:\n%s", util)
	}
	mainText := readFile(t, mainPath)
	if strings.Contains(mainText, "answer =") {
		t.Errorf("declaration left behind:\n%s", mainText)
	}
	if !strings.Contains(mainText, "import Util exposing (answer)") {
		t.Errorf("expected the import to expose the moved function:\n%s", mainText)
	}
}

func TestParseCommand(t *testing.T) {
	root := writeProject(t, map[string]string{"src/Main.elm": unusedImportSource})
	path := filepath.Join(root, "src", "Main.elm")

	out, err := execute(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out == "" {
		t.Error("expected a tree dump")
	}

	out, err = execute(t, "parse", "--tokens", "--format", "json", path)
	if err != nil {
		t.Fatalf("parse --tokens: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Errorf("expected JSON tokens:\n%s", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "elmls" || payload.Version == "" {
		t.Errorf("unexpected payload %+v", payload)
	}
	out, err = execute(t, "version", "--full", "--color", "off")
	if err != nil {
		t.Fatalf("version --full: %v", err)
	}
	if !strings.HasPrefix(out, "elmls ") || !strings.Contains(out, "go:") {
		t.Errorf("unexpected pretty output:\n%s", out)
	}
	if _, err := execute(t, "version", "--format", "xml"); err == nil {
		t.Error("expected an unsupported format error")
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/p/src", "/p/src/Main.elm", true},
		{"/p/src", "/p/src", true},
		{"/p/src", "/p/srcs/Main.elm", false},
		{"/p/src", "/p/Main.elm", false},
		{"/p/src", "/p/src/..foo/A.elm", true},
	}
	for _, tt := range tests {
		if got := within(tt.root, tt.path); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestCacheSaltIgnoresOrder(t *testing.T) {
	a := cacheSalt(analysis.Options{Max: 10, Disabled: []string{"unused_import", "syntax_error"}})
	b := cacheSalt(analysis.Options{Max: 10, Disabled: []string{"syntax_error", "unused_import"}})
	if a != b {
		t.Errorf("salt depends on order: %q vs %q", a, b)
	}
	if a == cacheSalt(analysis.Options{Max: 20, Disabled: []string{"syntax_error", "unused_import"}}) {
		t.Error("salt must change with max")
	}
}
