package token

import (
	"elmls/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
	// Col is the byte column of the token start; FirstOnLine is set when only
	// whitespace or comments precede it on its line. The parser uses both
	// for layout.
	Col         int
	FirstOnLine bool
}

// IsLiteral reports whether the token is a numeric, string, or char literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, CharLit:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwModule && t.Kind <= KwPort
}

// IsIdent reports whether the token is an identifier of either case.
func (t Token) IsIdent() bool { return t.Kind == LowerIdent || t.Kind == UpperIdent }

// Touches reports whether next starts exactly where t ends, with no trivia in between.
func (t Token) Touches(next Token) bool {
	return t.Span.End == next.Span.Start
}
