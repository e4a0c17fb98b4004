package lexer

import (
	"testing"

	"elmls/internal/source"
	"elmls/internal/token"
)

func lexAll(t *testing.T, text string) ([]token.Token, []Error) {
	t.Helper()
	lx := New(source.NewVirtualFile("file:///test.elm", text))
	return lx.All(), lx.Errors()
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "module header",
			input: "module Main exposing (..)",
			want: []token.Kind{
				token.KwModule, token.UpperIdent, token.KwExposing,
				token.LParen, token.DotDot, token.RParen, token.EOF,
			},
		},
		{
			name:  "qualified call",
			input: "List.map f xs",
			want: []token.Kind{
				token.UpperIdent, token.Dot, token.LowerIdent,
				token.LowerIdent, token.LowerIdent, token.EOF,
			},
		},
		{
			name:  "operators and punctuation",
			input: "\\x -> x |> f :: [] == 1.5",
			want: []token.Kind{
				token.Backslash, token.LowerIdent, token.Arrow, token.LowerIdent,
				token.Operator, token.LowerIdent, token.Operator, token.LBracket,
				token.RBracket, token.Operator, token.FloatLit, token.EOF,
			},
		},
		{
			name:  "comments are trivia",
			input: "a -- line\n{- block {- nested -} -} b",
			want:  []token.Kind{token.LowerIdent, token.LowerIdent, token.EOF},
		},
		{
			name:  "literals",
			input: "'c' \"s\\\"\" \"\"\"multi\nline\"\"\" 0xFF 1e3 _",
			want: []token.Kind{
				token.CharLit, token.StringLit, token.StringLit,
				token.IntLit, token.FloatLit, token.Underscore, token.EOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := lexAll(t, tt.input)
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %+v", errs)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexerLayoutInfo(t *testing.T) {
	toks, _ := lexAll(t, "foo =\n  {- c -} bar baz\nqux")

	byText := map[string]token.Token{}
	for _, tok := range toks {
		byText[tok.Text] = tok
	}
	if tok := byText["foo"]; !tok.FirstOnLine || tok.Col != 0 {
		t.Errorf("foo: %+v", tok)
	}
	if tok := byText["bar"]; !tok.FirstOnLine || tok.Col != 10 {
		t.Errorf("bar should be first on its line at col 10: %+v", tok)
	}
	if tok := byText["baz"]; tok.FirstOnLine {
		t.Errorf("baz is not first on its line")
	}
	if tok := byText["qux"]; !tok.FirstOnLine || tok.Col != 0 {
		t.Errorf("qux: %+v", tok)
	}
}

func TestLexerErrors(t *testing.T) {
	_, errs := lexAll(t, "\"open\nx {- never closed")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %+v", errs)
	}
	if errs[0].Msg != "unterminated string" {
		t.Errorf("first error = %q", errs[0].Msg)
	}
	if errs[1].Msg != "unterminated block comment" {
		t.Errorf("second error = %q", errs[1].Msg)
	}
}
