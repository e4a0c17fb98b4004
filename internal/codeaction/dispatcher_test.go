package codeaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/source"
)

const mainURI = "file:///work/src/Main.elm"

const utilURI = "file:///work/src/Util.elm"

const utilModule = "module Util exposing (..)\n\n\nidentity a =\n    a\n"

const helperModule = `module Main exposing (main)

import Html


helper x =
    x + 1


main =
    helper 2
`

func stubDiag(t *testing.T, s *Snapshot, needle string) diag.Diagnostic {
	t.Helper()
	return diag.NewError("stub", spanOf(t, s, needle), "stub problem "+needle)
}

func TestRegistryLookupOrder(t *testing.T) {
	reg := NewRegistry()
	first := &stubProvider{id: "first", codes: []string{"a", "b"}}
	second := &stubProvider{id: "second", codes: []string{"a"}}
	reg.Register(first)
	reg.Register(second)

	got := reg.Lookup("a")
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].ID())
	assert.Equal(t, "second", got[1].ID())
	assert.Len(t, reg.Lookup("b"), 1)
	assert.Empty(t, reg.Lookup("UnregisteredCode"))
	assert.Equal(t, []string{"a", "b"}, reg.Codes())

	NewDispatcher(reg, newForest())
	assert.True(t, reg.Frozen())
	assert.Panics(t, func() { reg.Register(&stubProvider{id: "late"}) })
}

func TestUnknownDocumentYieldsEmptyList(t *testing.T) {
	d := NewDispatcher(NewRegistry(), newForest())
	got := d.ComputeActions(context.Background(), Request{URI: "file:///nowhere.elm"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUnknownAndNonStringCodes(t *testing.T) {
	snap := snapshot(mainURI, helperModule)
	reg := NewRegistry()
	reg.Register(&stubProvider{id: "stub", codes: []string{"stub", "42"}})
	d := NewDispatcher(reg, newForest(snap))

	rng := spanOf(t, snap, "x + 1")
	got := d.ComputeActions(context.Background(), Request{
		URI:   mainURI,
		Range: pointIn(t, snap, "Html"),
		Diagnostics: []diag.Diagnostic{
			{Range: rng, Severity: diag.SevError, Code: diag.IntCode(42), Message: "numeric"},
			{Range: rng, Severity: diag.SevError, Code: diag.StringCode("UnregisteredCode"), Message: "unknown"},
			{Range: rng, Severity: diag.SevError, Code: diag.NoCode, Message: "no code"},
		},
	})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFixAllGating(t *testing.T) {
	base := snapshot(mainURI, helperModule)
	d1 := stubDiag(t, base, "helper x")
	d2 := stubDiag(t, base, "main =")

	run := func(p *stubProvider, doc []diag.Diagnostic, req ...diag.Diagnostic) []CodeAction {
		snap := snapshot(mainURI, helperModule, doc...)
		reg := NewRegistry()
		reg.Register(p)
		return NewDispatcher(reg, newForest(snap)).ComputeActions(context.Background(), Request{
			URI:         mainURI,
			Range:       pointIn(t, snap, "Html"),
			Diagnostics: req,
		})
	}

	t.Run("two diagnostics share the code", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}, fixAll: true}
		got := run(p, []diag.Diagnostic{d1, d2}, d1)
		require.Equal(t, []string{"fix stub", "fix all stub"}, titles(got))
		assert.Equal(t, KindQuickFix, got[0].Kind)
		assert.Equal(t, "stub", got[0].ID)
		assert.Equal(t, []diag.Diagnostic{d1}, got[0].Diagnostics)
		assert.Equal(t, KindSourceFixAll, got[1].Kind)
		assert.Equal(t, "stub.all", got[1].ID)
		assert.Len(t, got[1].Diagnostics, 2)
		assert.Equal(t, 2, got[1].Edit.Len())
	})

	t.Run("either diagnostic triggers it", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}, fixAll: true}
		got := run(p, []diag.Diagnostic{d1, d2}, d2)
		assert.Equal(t, []string{"fix stub", "fix all stub"}, titles(got))
	})

	t.Run("single diagnostic", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}, fixAll: true}
		got := run(p, []diag.Diagnostic{d1}, d1)
		assert.Equal(t, []string{"fix stub"}, titles(got))
		assert.Zero(t, p.calls)
	})

	t.Run("identical duplicates do not count", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}, fixAll: true}
		got := run(p, []diag.Diagnostic{d1, d1}, d1)
		assert.Equal(t, []string{"fix stub"}, titles(got))
	})

	t.Run("request diagnostics are merged with the document", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}, fixAll: true}
		got := run(p, nil, d1, d2)
		assert.Equal(t, []string{"fix stub", "fix all stub", "fix stub"}, titles(got))
		assert.Equal(t, 1, p.calls, "fix-all is requested once per provider and code")
	})

	t.Run("provider declines fix-all", func(t *testing.T) {
		p := &stubProvider{id: "stub", codes: []string{"stub"}}
		got := run(p, []diag.Diagnostic{d1, d2}, d1)
		assert.Equal(t, []string{"fix stub"}, titles(got))
		assert.Equal(t, 1, p.calls)
	})
}

func TestComputeActionsDeterministic(t *testing.T) {
	base := snapshot(mainURI, helperModule)
	d1 := stubDiag(t, base, "helper x")
	d2 := stubDiag(t, base, "main =")
	snap := snapshot(mainURI, helperModule, d1, d2)

	reg := NewRegistry()
	reg.Register(&stubProvider{id: "one", codes: []string{"stub"}, fixAll: true})
	reg.Register(&stubProvider{id: "two", codes: []string{"stub"}})
	util := snapshot(utilURI, utilModule)
	d := NewDispatcher(reg, newForest(snap, util), WithSources(staticSource{title: "compile"}, staticSource{title: "lint"}))

	req := Request{URI: mainURI, Range: pointIn(t, snap, "helper x"), Diagnostics: []diag.Diagnostic{d2, d1}}
	first := d.ComputeActions(context.Background(), req)
	for range 3 {
		assert.Equal(t, first, d.ComputeActions(context.Background(), req))
	}
	assert.Equal(t, []string{
		"fix one", "fix all one", "fix two",
		"fix one", "fix two",
		"Move Function to `Util`", "Expose Function",
		"compile", "lint",
	}, titles(first))
}

type remoteProvider struct{}

func (remoteProvider) ID() string      { return "remote" }
func (remoteProvider) Codes() []string { return []string{"stub"} }

func (remoteProvider) CodeActions(ctx *Context) []CodeAction {
	edit := fix.NewWorkspaceEdit(ctx.URI, fix.TextEdit{NewText: "-- here\n"})
	edit.Add("file:///elsewhere/Other.elm", fix.TextEdit{NewText: "x"})
	return []CodeAction{{Title: "remote", Edit: &edit}}
}

func (remoteProvider) FixAll(*Context) (CodeAction, bool) { return CodeAction{}, false }

func TestActionsStayInReachableDocuments(t *testing.T) {
	snap := snapshot(mainURI, helperModule)
	dg := stubDiag(t, snap, "helper x")
	reg := NewRegistry()
	reg.Register(remoteProvider{})

	got := NewDispatcher(reg, newForest(snap)).ComputeActions(context.Background(), Request{
		URI: mainURI, Range: pointIn(t, snap, "Html"), Diagnostics: []diag.Diagnostic{dg},
	})
	assert.Empty(t, got)

	other := snapshot("file:///elsewhere/Other.elm", "module Other exposing (..)\n")
	got = NewDispatcher(NewRegistry(), newForest(snap, other)).ComputeActions(context.Background(), Request{
		URI: mainURI, Range: pointIn(t, snap, "Html"),
	})
	assert.Empty(t, got)

	reg = NewRegistry()
	reg.Register(remoteProvider{})
	got = NewDispatcher(reg, newForest(snap, other)).ComputeActions(context.Background(), Request{
		URI: mainURI, Range: pointIn(t, snap, "Html"), Diagnostics: []diag.Diagnostic{dg},
	})
	assert.Equal(t, []string{"remote"}, titles(got))
}

func TestLegacyInferredAnnotation(t *testing.T) {
	snap := snapshot(mainURI, "main =\n    1\n")
	msg := "Top-level value `main` does not have a type annotation.\n\n" +
		InferredAnnotationMarker + "\n\n    main : Int\n"
	legacy := diag.Diagnostic{Range: spanOf(t, snap, "main"), Severity: diag.SevWarning, Message: msg}

	got := NewDispatcher(NewRegistry(), newForest(snap)).ComputeActions(context.Background(), Request{
		URI:         mainURI,
		Range:       pointIn(t, snap, "1"),
		Diagnostics: []diag.Diagnostic{legacy},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Add inferred annotation", got[0].Title)
	assert.True(t, got[0].IsPreferred)
	assert.Equal(t, "main : Int\nmain =\n    1\n", applyAction(t, snap, got[0]))
}

func TestInferredAnnotationParsing(t *testing.T) {
	got, ok := inferredAnnotation(InferredAnnotationMarker + "\n\n    update : Msg\n        -> Model\n        -> Model\n\nmore")
	require.True(t, ok)
	assert.Equal(t, "update : Msg -> Model -> Model", got)

	_, ok = inferredAnnotation("something else")
	assert.False(t, ok)
}

func TestChangeConversion(t *testing.T) {
	edit := fix.NewWorkspaceEdit(mainURI, fix.TextEdit{Range: source.Range{}, NewText: "x"})
	a := CodeAction{Title: "all", Kind: KindSourceFixAll, ID: "p.all", Edit: &edit}
	ch := a.Change()
	assert.True(t, ch.FixAll)
	assert.Equal(t, "p.all", ch.ID)
	assert.Equal(t, 1, ch.Edit.Len())

	cmd := CodeAction{Title: "Move Function", Command: &Command{Command: CommandMoveDeclaration}}
	assert.True(t, cmd.Change().Edit.Empty())
	assert.Len(t, Changes([]CodeAction{a, cmd}), 2)
}
