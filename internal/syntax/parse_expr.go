package syntax

import (
	"elmls/internal/token"
)

func (p *Parser) parseExpr() *Node {
	return p.parseBinary(0)
}

// parseBinary is precedence climbing over infix operators.
func (p *Parser) parseBinary(minPrec int) *Node {
	left := p.parseOperand()
	for {
		t := p.peek()
		if t.Kind != token.Operator || p.stop() {
			return left
		}
		info := lookupOperator(t.Text)
		if info.prec < minPrec {
			return left
		}
		p.advance()
		next := info.prec + 1
		if info.assoc == assocRight {
			next = info.prec
		}
		right := p.parseBinary(next)
		n := newNode(KindBinOp, left.Span)
		n.Text = t.Text
		n.set(FieldLeft, left)
		n.set(FieldRight, right)
		left = p.finish(n)
		if info.assoc == assocNone && p.atOp(t.Text) {
			p.errorf(p.peek().Span, "operator %s is non-associative", t.Text)
		}
	}
}

func (p *Parser) parseOperand() *Node {
	switch p.peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwCase:
		return p.parseCase()
	case token.Backslash:
		return p.parseLambda()
	}
	return p.parseApp()
}

// parseApp reads a function application: an atom followed by argument atoms
// on the same line or on indented continuation lines.
func (p *Parser) parseApp() *Node {
	head := p.parsePostfix()
	if head.Kind == KindError {
		return head
	}
	var args []*Node
	for p.canStartAtom() && !p.stop() {
		args = append(args, p.parsePostfix())
	}
	if len(args) == 0 {
		return head
	}
	n := newNode(KindCall, head.Span)
	n.set(FieldTarget, head)
	for _, a := range args {
		n.add(a)
	}
	return p.finish(n)
}

func (p *Parser) canStartAtom() bool {
	t := p.peek()
	switch t.Kind {
	case token.LowerIdent, token.UpperIdent, token.IntLit, token.FloatLit,
		token.StringLit, token.CharLit, token.LParen, token.LBracket, token.LBrace:
		return true
	case token.Backslash:
		return true
	case token.Dot:
		return p.isAccessorStart()
	case token.Operator:
		return p.isNegation()
	}
	return false
}

// isAccessorStart matches `.field` not glued to a preceding expression.
func (p *Parser) isAccessorStart() bool {
	t := p.peek()
	next := p.peekAt(1)
	return t.Kind == token.Dot && next.Kind == token.LowerIdent && t.Touches(next) &&
		(p.pos == 0 || !p.prev().Touches(t))
}

// isNegation matches a prefix minus: preceded by space, glued to its operand.
func (p *Parser) isNegation() bool {
	t := p.peek()
	if t.Kind != token.Operator || t.Text != "-" {
		return false
	}
	next := p.peekAt(1)
	if !t.Touches(next) || next.Kind == token.EOF {
		return false
	}
	return p.pos == 0 || !p.prev().Touches(t) || p.prev().Kind == token.LParen
}

func (p *Parser) parsePostfix() *Node {
	n := p.parseAtom()
	for p.at(token.Dot) && p.prev().Touches(p.peek()) &&
		p.peekAt(1).Kind == token.LowerIdent && p.peek().Touches(p.peekAt(1)) {
		p.advance()
		field := p.advance()
		access := newNode(KindFieldAccess, n.Span)
		access.set(FieldTarget, n)
		access.set(FieldName, p.leaf(KindLowerName, field))
		n = p.finish(access)
	}
	return n
}

func (p *Parser) parseAtom() *Node {
	t := p.peek()
	switch t.Kind {
	case token.LowerIdent:
		return p.leaf(KindValueRef, p.advance())
	case token.UpperIdent:
		return p.parseQualifiedRef()
	case token.IntLit:
		return p.leaf(KindIntLit, p.advance())
	case token.FloatLit:
		return p.leaf(KindFloatLit, p.advance())
	case token.StringLit:
		return p.leaf(KindStringLit, p.advance())
	case token.CharLit:
		return p.leaf(KindCharLit, p.advance())
	case token.LParen:
		return p.parseParenExpr()
	case token.LBracket:
		return p.parseListExpr()
	case token.LBrace:
		return p.parseRecordExpr()
	case token.Backslash:
		return p.parseLambda()
	case token.Dot:
		if p.isAccessorStart() {
			dot := p.advance()
			field := p.advance()
			n := newNode(KindFieldAccessor, dot.Span)
			n.Text = "." + field.Text
			return p.finish(n)
		}
	case token.Operator:
		if p.isNegation() {
			minus := p.advance()
			n := newNode(KindNegate, minus.Span)
			n.set(FieldValue, p.parsePostfix())
			return p.finish(n)
		}
	}
	return p.errorNode("expected an expression")
}

// parseQualifiedRef reads Upper(.Upper)*(.lower)? with glued dots. A
// trailing lower name makes it a value reference, otherwise a constructor.
func (p *Parser) parseQualifiedRef() *Node {
	first := p.advance()
	n := p.leaf(KindConstructorRef, first)
	for p.at(token.Dot) && p.prev().Touches(p.peek()) && p.peek().Touches(p.peekAt(1)) {
		next := p.peekAt(1)
		if next.Kind != token.UpperIdent && next.Kind != token.LowerIdent {
			break
		}
		p.advance()
		p.advance()
		n.Text += "." + next.Text
		if next.Kind == token.LowerIdent {
			n.Kind = KindValueRef
			break
		}
	}
	return p.finish(n)
}

func (p *Parser) parseParenExpr() *Node {
	open := p.advance()
	if p.at(token.RParen) {
		p.advance()
		return p.finish(newNode(KindUnit, open.Span))
	}
	if p.at(token.Operator) && p.peekAt(1).Kind == token.RParen {
		op := p.advance()
		p.advance()
		n := newNode(KindOperatorRef, open.Span)
		n.Text = op.Text
		return p.finish(n)
	}

	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	first := p.parseExpr()
	if p.at(token.Comma) {
		n := newNode(KindTuple, open.Span)
		n.add(first)
		for p.at(token.Comma) {
			p.advance()
			n.add(p.parseExpr())
		}
		p.expect(token.RParen)
		return p.finish(n)
	}
	n := newNode(KindParen, open.Span)
	n.set(FieldValue, first)
	p.expect(token.RParen)
	return p.finish(n)
}

func (p *Parser) parseListExpr() *Node {
	open := p.advance()
	n := newNode(KindList, open.Span)
	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	if !p.at(token.RBracket) {
		n.add(p.parseExpr())
		for p.at(token.Comma) {
			p.advance()
			n.add(p.parseExpr())
		}
	}
	p.expect(token.RBracket)
	return p.finish(n)
}

// parseRecordExpr reads `{}`, `{ a = e, ... }` or `{ r | a = e, ... }`.
func (p *Parser) parseRecordExpr() *Node {
	open := p.advance()
	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	n := newNode(KindRecord, open.Span)
	if p.at(token.LowerIdent) && p.peekAt(1).Kind == token.Pipe {
		n.Kind = KindRecordUpdate
		n.set(FieldRecord, p.leaf(KindValueRef, p.advance()))
		p.advance()
	}
	if !p.at(token.RBrace) {
		n.add(p.parseFieldAssign())
		for p.at(token.Comma) {
			p.advance()
			n.add(p.parseFieldAssign())
		}
	}
	p.expect(token.RBrace)
	return p.finish(n)
}

func (p *Parser) parseFieldAssign() *Node {
	t, ok := p.expect(token.LowerIdent)
	if !ok {
		return p.errorNode("expected a field name")
	}
	n := newNode(KindFieldAssign, t.Span)
	n.set(FieldName, p.leaf(KindLowerName, t))
	if _, ok := p.expect(token.Equals); ok {
		n.set(FieldValue, p.parseExpr())
	}
	return p.finish(n)
}

func (p *Parser) parseLambda() *Node {
	start := p.advance()
	n := newNode(KindLambda, start.Span)
	for !p.at(token.Arrow) && p.canStartPatternAtom() {
		n.add(p.parsePatternAtom())
	}
	if _, ok := p.expect(token.Arrow); ok {
		n.set(FieldBody, p.parseExpr())
	}
	return p.finish(n)
}

func (p *Parser) parseIf() *Node {
	start := p.advance()
	n := newNode(KindIf, start.Span)
	n.set(FieldCondition, p.parseExpr())
	if _, ok := p.expect(token.KwThen); !ok {
		return p.finish(n)
	}
	n.set(FieldThen, p.parseExpr())
	if _, ok := p.expect(token.KwElse); !ok {
		return p.finish(n)
	}
	n.set(FieldElse, p.parseExpr())
	return p.finish(n)
}

// parseLet reads an aligned block of bindings followed by `in` and the body.
func (p *Parser) parseLet() *Node {
	start := p.advance()
	n := newNode(KindLet, start.Span)
	saved := p.indent

	if p.at(token.KwIn) || p.at(token.EOF) {
		p.errorf(p.peek().Span, "expected a let binding, found %s", describe(p.peek()))
	} else {
		col := p.peek().Col
		for {
			p.indent = col
			before := p.pos
			if p.at(token.LowerIdent) && p.peekAt(1).Kind == token.Colon {
				n.add(p.parseAnnotation())
			} else {
				n.add(p.parseValueDecl())
			}
			if p.pos == before {
				n.add(p.errorNode("expected a let binding"))
				if p.pos == before {
					break
				}
			}
			t := p.peek()
			if t.Kind == token.KwIn || t.Kind == token.EOF || !t.FirstOnLine || t.Col != col {
				break
			}
		}
	}
	p.indent = saved

	if _, ok := p.expect(token.KwIn); ok {
		n.set(FieldBody, p.parseExpr())
	}
	return p.finish(n)
}

// parseCase reads `case e of` and an aligned block of branches.
func (p *Parser) parseCase() *Node {
	start := p.advance()
	n := newNode(KindCase, start.Span)
	saved := p.indent
	n.set(FieldSubject, p.parseExpr())
	if _, ok := p.expect(token.KwOf); !ok {
		return p.finish(n)
	}
	if p.stop() {
		p.errorf(p.peek().Span, "expected a case branch, found %s", describe(p.peek()))
		return p.finish(n)
	}
	col := p.peek().Col
	for {
		p.indent = col
		before := p.pos
		n.add(p.parseCaseBranch())
		if p.pos == before {
			p.advance()
		}
		p.indent = saved
		t := p.peek()
		if t.Kind == token.EOF || !t.FirstOnLine || t.Col != col || p.stop() {
			break
		}
	}
	p.indent = saved
	return p.finish(n)
}

func (p *Parser) parseCaseBranch() *Node {
	pat := p.parsePattern()
	n := newNode(KindCaseBranch, pat.Span)
	n.set(FieldPattern, pat)
	if _, ok := p.expect(token.Arrow); ok {
		n.set(FieldBody, p.parseExpr())
	}
	return p.finish(n)
}
