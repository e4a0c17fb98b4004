package lexer

import (
	"elmls/internal/token"
)

// collectLeadingTrivia gathers whitespace and comments before the next token.
// Runs of spaces/tabs and runs of newlines are coalesced; "--" comments run to
// the end of the line; "{- -}" comments nest.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\r':
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)

		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)

		case lx.cursor.HasPrefix("--"):
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaLineComment, start)

		case lx.cursor.HasPrefix("{-"):
			kind := token.TriviaBlockComment
			if lx.cursor.HasPrefix("{-|") {
				kind = token.TriviaDocComment
			}
			lx.scanBlockComment()
			lx.pushTrivia(kind, start)

		default:
			return
		}
	}
}

func (lx *Lexer) scanBlockComment() {
	start := lx.cursor.Mark()
	depth := 0
	for !lx.cursor.EOF() {
		switch {
		case lx.cursor.HasPrefix("{-"):
			depth++
			lx.cursor.Bump()
			lx.cursor.Bump()
		case lx.cursor.HasPrefix("-}"):
			depth--
			lx.cursor.Bump()
			lx.cursor.Bump()
			if depth == 0 {
				return
			}
		default:
			lx.cursor.Bump()
		}
	}
	lx.errorf(lx.cursor.SpanFrom(start), "unterminated block comment")
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}
