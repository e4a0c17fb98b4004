package lexer

import (
	"elmls/internal/source"
	"elmls/internal/token"
)

// Error is a lexical error; the parser turns these into diagnostics.
type Error struct {
	Span source.Span
	Msg  string
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	look   *token.Token
	hold   []token.Trivia
	errs   []Error

	seen    bool
	prevEnd uint32 // end of the previous significant token
}

func New(file *source.File) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
	}
}

// Errors returns the lexical errors collected so far.
func (lx *Lexer) Errors() []Error {
	return lx.errs
}

// Next returns the next significant token with its leading trivia attached.
// After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return lx.finish(token.Token{
			Kind: token.EOF,
			Span: lx.emptySpan(),
		})
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case ch == '_' && !isIdentContinueByte(lx.cursor.PeekAt(1)):
		lx.cursor.Bump()
		tok = lx.tokenFrom(token.Underscore, Mark(lx.cursor.Off-1))
	case isIdentStartByte(ch):
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString()
	case ch == '\'':
		tok = lx.scanChar()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	return lx.finish(tok)
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the whole file; the final token is always EOF.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) finish(tok token.Token) token.Token {
	tok.Leading = lx.hold
	lx.hold = nil
	tok.Col = lx.file.Column(tok.Span.Start)
	tok.FirstOnLine = !lx.seen || lx.file.LineOf(lx.prevEnd) < lx.file.LineOf(tok.Span.Start)
	lx.seen = true
	lx.prevEnd = tok.Span.End
	return tok
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) tokenFrom(kind token.Kind, m Mark) token.Token {
	sp := lx.cursor.SpanFrom(m)
	return token.Token{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	}
}

func (lx *Lexer) errorf(sp source.Span, msg string) {
	lx.errs = append(lx.errs, Error{Span: sp, Msg: msg})
}
