package cache

import (
	"crypto/sha256"
	"testing"

	"github.com/spf13/afero"

	"elmls/internal/diag"
	"elmls/internal/source"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(afero.NewMemMapFs(), "/cache", "elmls")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rng := source.Range{
		Start: source.Position{Line: 1, Character: 2},
		End:   source.Position{Line: 1, Character: 7},
	}
	diags := []diag.Diagnostic{
		diag.New(diag.SevWarning, diag.CodeUnusedImport, rng, "unused").WithSource(diag.SourceCompiler),
		{Range: rng, Severity: diag.SevError, Code: diag.IntCode(7), Message: "numeric"},
		{Range: rng, Severity: diag.SevHint, Message: "bare"},
	}
	key := KeyFor(sha256.Sum256([]byte("module Main exposing (..)")), nil, "")

	if _, ok, err := c.Get(key); err != nil || ok {
		t.Fatalf("expected a miss before Put, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(key, NewEntry("file:///Main.elm", diags)); err != nil {
		t.Fatalf("put: %v", err)
	}
	entry, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if entry.URI != "file:///Main.elm" {
		t.Errorf("URI = %q", entry.URI)
	}
	got := entry.Diagnostics()
	if len(got) != len(diags) {
		t.Fatalf("got %d diagnostics, want %d", len(got), len(diags))
	}
	for i := range diags {
		if !got[i].Identical(diags[i]) {
			t.Errorf("diagnostic %d: got %+v, want %+v", i, got[i], diags[i])
		}
	}
}

func TestKeyForDependsOnInputs(t *testing.T) {
	content := sha256.Sum256([]byte("a"))
	dep := sha256.Sum256([]byte("b"))
	base := KeyFor(content, map[string][sha256.Size]byte{"B": dep}, "")

	if KeyFor(content, map[string][sha256.Size]byte{"B": dep}, "") != base {
		t.Error("key must be stable")
	}
	if KeyFor(content, nil, "") == base {
		t.Error("dependencies must change the key")
	}
	if KeyFor(content, map[string][sha256.Size]byte{"B": dep}, "max=1") == base {
		t.Error("salt must change the key")
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(afero.NewMemMapFs(), "/cache", "elmls")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := KeyFor(sha256.Sum256([]byte("x")), nil, "")
	if err := c.Put(key, NewEntry("file:///X.elm", nil)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Error("entry survived DropAll")
	}
}

func TestNilCache(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Key{}, &Entry{}); err != nil {
		t.Errorf("Put on nil cache: %v", err)
	}
	if _, ok, err := c.Get(Key{}); ok || err != nil {
		t.Errorf("Get on nil cache: ok=%v err=%v", ok, err)
	}
}
