package lexer

import (
	"strings"

	"elmls/internal/token"
)

const opChars = "+-*/=<>|&:^!%?.$#~@"

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isOpChar(b byte) bool {
	return b != 0 && strings.IndexByte(opChars, b) >= 0
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	first := lx.cursor.Bump()
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	tok := lx.tokenFrom(token.LowerIdent, start)
	if first >= 'A' && first <= 'Z' {
		tok.Kind = token.UpperIdent
		return tok
	}
	if kw, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = kw
	}
	return tok
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	if lx.cursor.HasPrefix("0x") {
		lx.cursor.Bump()
		lx.cursor.Bump()
		for isHex(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return lx.tokenFrom(token.IntLit, start)
	}
	kind := token.IntLit
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		kind = token.FloatLit
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		save := lx.cursor.Mark()
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			lx.cursor.Reset(save)
		} else {
			kind = token.FloatLit
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}
	return lx.tokenFrom(kind, start)
}

func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	if lx.cursor.HasPrefix(`"""`) {
		lx.cursor.Off += 3
		for !lx.cursor.EOF() {
			if lx.cursor.HasPrefix(`"""`) {
				lx.cursor.Off += 3
				return lx.tokenFrom(token.StringLit, start)
			}
			if lx.cursor.Bump() == '\\' {
				lx.cursor.Bump()
			}
		}
		lx.errorf(lx.cursor.SpanFrom(start), "unterminated multi-line string")
		return lx.tokenFrom(token.StringLit, start)
	}
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '"':
			lx.cursor.Bump()
			return lx.tokenFrom(token.StringLit, start)
		case '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case '\n':
			lx.errorf(lx.cursor.SpanFrom(start), "unterminated string")
			return lx.tokenFrom(token.StringLit, start)
		default:
			lx.cursor.Bump()
		}
	}
	lx.errorf(lx.cursor.SpanFrom(start), "unterminated string")
	return lx.tokenFrom(token.StringLit, start)
}

func (lx *Lexer) scanChar() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '\'':
			lx.cursor.Bump()
			return lx.tokenFrom(token.CharLit, start)
		case '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case '\n':
			lx.errorf(lx.cursor.SpanFrom(start), "unterminated char literal")
			return lx.tokenFrom(token.CharLit, start)
		default:
			lx.cursor.Bump()
		}
	}
	lx.errorf(lx.cursor.SpanFrom(start), "unterminated char literal")
	return lx.tokenFrom(token.CharLit, start)
}

var punct = map[byte]token.Kind{
	'(':  token.LParen,
	')':  token.RParen,
	'[':  token.LBracket,
	']':  token.RBracket,
	'{':  token.LBrace,
	'}':  token.RBrace,
	',':  token.Comma,
	'\\': token.Backslash,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Peek()
	if kind, ok := punct[b]; ok {
		lx.cursor.Bump()
		return lx.tokenFrom(kind, start)
	}
	if !isOpChar(b) {
		lx.cursor.Bump()
		tok := lx.tokenFrom(token.Invalid, start)
		lx.errorf(tok.Span, "unexpected character "+tok.Text)
		return tok
	}
	for isOpChar(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	tok := lx.tokenFrom(token.Operator, start)
	switch tok.Text {
	case "=":
		tok.Kind = token.Equals
	case ":":
		tok.Kind = token.Colon
	case "|":
		tok.Kind = token.Pipe
	case "->":
		tok.Kind = token.Arrow
	case ".":
		tok.Kind = token.Dot
	case "..":
		tok.Kind = token.DotDot
	}
	return tok
}
