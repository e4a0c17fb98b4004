package codeaction

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmls/internal/diag"
	"elmls/internal/fix"
)

func actionsAt(t *testing.T, snap *Snapshot, needle string) []CodeAction {
	t.Helper()
	d := NewDispatcher(NewRegistry(), newForest(snap, snapshot(utilURI, utilModule)))
	return d.ComputeActions(context.Background(), Request{URI: snap.URI, Range: pointIn(t, snap, needle)})
}

func byTitle(t *testing.T, actions []CodeAction, title string) CodeAction {
	t.Helper()
	for _, a := range actions {
		if a.Title == title {
			return a
		}
	}
	require.Failf(t, "missing action", "no %q in %v", title, titles(actions))
	return CodeAction{}
}

func TestFunctionRefactors(t *testing.T) {
	snap := snapshot(mainURI, helperModule)

	got := actionsAt(t, snap, "helper x")
	require.Equal(t, []string{"Move Function to `Util`", "Expose Function"}, titles(got))
	move := got[0]
	assert.Equal(t, KindRefactor, move.Kind)
	assert.Nil(t, move.Edit)
	require.NotNil(t, move.Command)
	assert.Equal(t, CommandMoveDeclaration, move.Command.Command)
	assert.Equal(t, "Move Function to `Util`", move.Command.Title)
	assert.Equal(t, []any{mainURI, "helper", "Util"}, move.Command.Arguments)

	exposed := applyAction(t, snap, got[1])
	assert.True(t, strings.HasPrefix(exposed, "module Main exposing (main, helper)\n"), exposed)

	got = actionsAt(t, snap, "main =")
	require.Equal(t, []string{"Move Function to `Util`", "Unexpose Function"}, titles(got))
	assert.True(t, strings.HasPrefix(applyAction(t, snap, got[1]), "module Main exposing ()\n"))
}

func TestFunctionRefactorsFromAnnotation(t *testing.T) {
	snap := snapshot(mainURI, "module Main exposing (main)\n\nmain : Int\nmain =\n    1\n")
	got := actionsAt(t, snap, "main : Int")
	assert.Equal(t, []string{"Move Function to `Util`", "Unexpose Function"}, titles(got))
}

func TestExposingAllOnlyOffersMove(t *testing.T) {
	snap := snapshot(mainURI, "module Main exposing (..)\n\nhelper =\n    1\n\n\ntype Msg\n    = Go\n")
	assert.Equal(t, []string{"Move Function to `Util`"}, titles(actionsAt(t, snap, "helper =")))
	assert.Empty(t, actionsAt(t, snap, "Msg\n"))
}

func TestMoveTargetsEveryOtherModule(t *testing.T) {
	snap := snapshot(mainURI, helperModule)
	taken := snapshot("file:///work/src/Taken.elm", "module Taken exposing (helper)\n\n\nhelper =\n    0\n")
	util := snapshot(utilURI, utilModule)
	api := snapshot("file:///work/src/Api.elm", "module Api exposing (..)\n")
	d := NewDispatcher(NewRegistry(), newForest(snap, taken, util, api))

	var moves []CodeAction
	for _, a := range d.ComputeActions(context.Background(), Request{URI: mainURI, Range: pointIn(t, snap, "helper x")}) {
		if a.ID == "move_function" {
			moves = append(moves, a)
		}
	}
	require.Equal(t, []string{"Move Function to `Api`", "Move Function to `Util`"}, titles(moves))
	for _, a := range moves {
		require.NotNil(t, a.Command)
		assert.Len(t, a.Command.Arguments, 3)
	}
	assert.Equal(t, []any{mainURI, "helper", "Api"}, moves[0].Command.Arguments)

	alone := NewDispatcher(NewRegistry(), newForest(snap)).ComputeActions(context.Background(), Request{
		URI: mainURI, Range: pointIn(t, snap, "helper x"),
	})
	assert.Equal(t, []string{"Expose Function"}, titles(alone))
}

// annotateProvider is a quick fix producing the same edit as the let
// binding refactor.
type annotateProvider struct{}

func (annotateProvider) ID() string      { return "annotate" }
func (annotateProvider) Codes() []string { return []string{diag.CodeMissingTypeAnnotation} }

func (annotateProvider) CodeActions(ctx *Context) []CodeAction {
	edit, ok := fix.AddAnnotation(ctx.Tree(), ctx.Checker(), ctx.Node().Parent)
	if !ok {
		return nil
	}
	return []CodeAction{NewQuickFix("annotate", ctx.URI, edit)}
}

func (annotateProvider) FixAll(*Context) (CodeAction, bool) { return CodeAction{}, false }

func TestRefactorsRepeatingAQuickFixAreDropped(t *testing.T) {
	text := "module Main exposing (main)\n\nmain =\n    let\n        bar = [ 1 ]\n    in\n    bar\n"
	base := snapshot(mainURI, text)
	d := diag.New(diag.SevWarning, diag.CodeMissingTypeAnnotation, spanOf(t, base, "bar"), "missing annotation")
	snap := snapshot(mainURI, text, d)
	reg := NewRegistry()
	reg.Register(annotateProvider{})
	disp := NewDispatcher(reg, newForest(snap))

	got := disp.ComputeActions(context.Background(), Request{URI: mainURI, Range: d.Range, Diagnostics: []diag.Diagnostic{d}})
	require.Equal(t, []string{"annotate"}, titles(got))
	assert.Contains(t, applyAction(t, snap, got[0]), "        bar : List number\n        bar = [ 1 ]\n")

	// Without the diagnostic in the request only the refactor remains.
	got = disp.ComputeActions(context.Background(), Request{URI: mainURI, Range: pointIn(t, snap, "bar =")})
	assert.Equal(t, []string{"Add inferred annotation"}, titles(got))
}

func TestLetBindingsAreNotMovable(t *testing.T) {
	snap := snapshot(mainURI, "module Main exposing (main)\n\nmain =\n    let\n        y =\n            1.5\n    in\n    y\n")
	got := actionsAt(t, snap, "y =")
	require.Equal(t, []string{"Add inferred annotation"}, titles(got))
	assert.Equal(t, KindRefactorRewrite, got[0].Kind)
	assert.Equal(t,
		"module Main exposing (main)\n\nmain =\n    let\n        y : Float\n        y =\n            1.5\n    in\n    y\n",
		applyAction(t, snap, got[0]))
}

func TestTypeRefactors(t *testing.T) {
	text := "module Main exposing (main, Msg)\n\ntype Msg\n    = Inc\n    | Dec\n\n\ntype alias Model =\n    Int\n\n\nmain =\n    1\n"
	snap := snapshot(mainURI, text)

	got := actionsAt(t, snap, "Msg\n")
	require.Equal(t, []string{"Expose Type with Variants", "Unexpose Type"}, titles(got))
	assert.True(t, strings.HasPrefix(applyAction(t, snap, got[0]), "module Main exposing (main, Msg(..))\n"))
	assert.True(t, strings.HasPrefix(applyAction(t, snap, got[1]), "module Main exposing (main)\n"))

	got = actionsAt(t, snap, "Model =")
	require.Equal(t, []string{"Expose Type"}, titles(got))
	assert.True(t, strings.HasPrefix(applyAction(t, snap, got[0]), "module Main exposing (main, Msg, Model)\n"))
}

func TestTypeRefactorsWithVariants(t *testing.T) {
	snap := snapshot(mainURI, "module Main exposing (Msg(..), main)\n\ntype Msg\n    = Inc\n\n\nmain =\n    Inc\n")
	got := actionsAt(t, snap, "Msg\n")
	require.Equal(t, []string{"Unexpose Type Variants", "Unexpose Type"}, titles(got))
	assert.True(t, strings.HasPrefix(applyAction(t, snap, got[0]), "module Main exposing (Msg, main)\n"))

	hidden := snapshot(mainURI, "module Main exposing (main)\n\ntype Msg\n    = Inc\n\n\nmain =\n    Inc\n")
	got = actionsAt(t, hidden, "Msg\n")
	assert.Equal(t, []string{"Expose Type", "Expose Type with Variants"}, titles(got))
	assert.True(t, strings.HasPrefix(applyAction(t, hidden, got[1]), "module Main exposing (main, Msg(..))\n"))
}

func TestCreateDeclarationFromUsage(t *testing.T) {
	text := "module Main exposing (main)\n\nmain =\n    foo 1 \"x\"\n"
	snap := snapshot(mainURI, text)

	a := byTitle(t, actionsAt(t, snap, "foo 1"), "Create top-level declaration `foo`")
	assert.Equal(t, KindQuickFix, a.Kind)
	assert.Equal(t,
		strings.TrimSuffix(text, "\n")+"\n\n\nfoo : number -> String -> a\nfoo arg1 arg2 =\n    Debug.todo \"TODO\"\n",
		applyAction(t, snap, a))
}

func TestCreateDeclarationNoSelfCollision(t *testing.T) {
	snap := snapshot(mainURI, helperModule)
	assert.Empty(t, actionsAt(t, snap, "helper 2"))

	local := snapshot(mainURI, "main x =\n    x\n")
	assert.Empty(t, actionsAt(t, local, "x\n"))
}
