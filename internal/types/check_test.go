package types

import (
	"strings"
	"testing"

	"elmls/internal/syntax"
)

const sampleModule = `module Main exposing (..)

type alias Model =
    { count : Int }

type Msg
    = Inc
    | Set Int

init = { count = 0 }

update msg model =
    case msg of
        Inc ->
            { model | count = model.count + 1 }

        Set n ->
            { model | count = n }

double x = x * 2

names = List.map .name

greet name = "Hello, " ++ name

pairUp =
    let
        id y = y
    in
    ( id 1, id "s" )

reset : Model -> Model
reset model = { model | count = 0 }
`

func checkText(t *testing.T, text string) *Checker {
	t.Helper()
	tree := syntax.ParseText("file:///Main.elm", text)
	if len(tree.Errors) != 0 {
		t.Fatalf("parse errors: %+v", tree.Errors)
	}
	return Check(tree, Prelude())
}

func TestInferTopLevel(t *testing.T) {
	c := checkText(t, sampleModule)
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	tests := []struct {
		name string
		want string
	}{
		{name: "init", want: "{ count : number }"},
		{name: "update", want: "Msg -> { a | count : Int } -> { a | count : Int }"},
		{name: "double", want: "number -> number"},
		{name: "names", want: "List { a | name : b } -> List b"},
		{name: "greet", want: "String -> String"},
		{name: "pairUp", want: "( number, String )"},
		{name: "reset", want: "Model -> Model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := syntax.FindTopLevel(c.Tree(), tt.name)
			typ, ok := c.Infer(decl)
			if !ok {
				t.Fatalf("no type for %s", tt.name)
			}
			if got := c.Render(typ, c.Tree()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferUnresolvedUsage(t *testing.T) {
	c := checkText(t, "module Main exposing (..)\n\nmain = foo 1 \"x\"\n")
	errs := c.Errors()
	if len(errs) != 1 || errs[0].Kind != ErrUnresolvedValue || errs[0].Name != "foo" {
		t.Fatalf("expected one unresolved foo, got %+v", errs)
	}
	call := syntax.FindTopLevel(c.Tree(), "main").Field(syntax.FieldBody)
	typ, ok := c.Infer(call.Field(syntax.FieldTarget))
	if !ok {
		t.Fatal("usage has no type")
	}
	if got := c.Render(typ, c.Tree()); got != "number -> String -> a" {
		t.Errorf("got %q", got)
	}
}

func TestMismatch(t *testing.T) {
	c := checkText(t, "x = 1 + \"a\"\n")
	errs := c.Errors()
	if len(errs) == 0 || errs[0].Kind != ErrMismatch {
		t.Fatalf("expected a mismatch, got %+v", errs)
	}
	if !strings.Contains(errs[0].Msg, "type mismatch") {
		t.Errorf("unexpected message %q", errs[0].Msg)
	}
}

func TestRenderQualification(t *testing.T) {
	main := checkText(t, sampleModule)
	importer := Chain(Prelude(), ImporterFunc(func(module string) (*Interface, bool) {
		if module == "Main" {
			return main.Interface(), true
		}
		return nil, false
	}))

	other := syntax.ParseText("file:///Other.elm", "module Other exposing (..)\n\nimport Main as M\n\nx = M.double 2\n")
	oc := Check(other, importer)
	if errs := oc.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if unused := oc.UnusedImports(); len(unused) != 0 {
		t.Errorf("import Main is used, got %d unused", len(unused))
	}

	msg := &Con{Name: "Main.Msg"}
	if got := main.Render(msg, main.Tree()); got != "Msg" {
		t.Errorf("own type rendered as %q", got)
	}
	if got := main.Render(msg, other); got != "M.Msg" {
		t.Errorf("aliased import rendered as %q", got)
	}
	lonely := syntax.ParseText("file:///Lonely.elm", "module Lonely exposing (..)\n\nimport Main\n\ny = 1\n")
	if got := main.Render(msg, lonely); got != "Main.Msg" {
		t.Errorf("qualified import rendered as %q", got)
	}
	if unused := Check(lonely, importer).UnusedImports(); len(unused) != 1 {
		t.Errorf("expected import Main to be unused, got %d", len(unused))
	}
}

func TestRenderParenthesizes(t *testing.T) {
	maybeInt := &Con{Name: NameMaybe, Args: []Type{Int}}
	tests := []struct {
		typ  Type
		want string
	}{
		{typ: List(maybeInt), want: "List.List (Maybe.Maybe Basics.Int)"},
		{typ: Func(Int, Func(Int, Int)), want: "(Basics.Int -> Basics.Int) -> Basics.Int"},
		{typ: Func(Func(Int, Int), Int), want: "Basics.Int -> Basics.Int -> Basics.Int"},
		{typ: &Tuple{Elems: []Type{Int, String}}, want: "( Basics.Int, String.String )"},
		{typ: Unit, want: "()"},
	}
	for _, tt := range tests {
		if got := RenderWith(tt.typ, nil); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestPreludeChecksCleanly(t *testing.T) {
	p := loadPrelude()
	for _, name := range preludeOrder {
		c := Check(p.trees[name], Prelude())
		if errs := c.Errors(); len(errs) != 0 {
			t.Errorf("%s: %+v", name, errs)
		}
	}
	basics, _ := Prelude().Import("Basics")
	if _, ok := basics.Ctors["Int"]; ok {
		t.Error("kernel constructor Int must not be exported")
	}
	if _, ok := basics.Ctors["True"]; !ok {
		t.Error("True should be exported")
	}
}
