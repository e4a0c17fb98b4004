package syntax

import (
	"elmls/internal/token"
)

// parseType reads a possibly curried function type. A FunctionType node
// lists the parameter types followed by the return type.
func (p *Parser) parseType() *Node {
	first := p.parseTypeApp()
	if !p.at(token.Arrow) || p.stop() {
		return first
	}
	n := newNode(KindFunctionType, first.Span)
	n.add(first)
	for p.at(token.Arrow) && !p.stop() {
		p.advance()
		n.add(p.parseTypeApp())
	}
	return p.finish(n)
}

func (p *Parser) parseTypeApp() *Node {
	if !p.at(token.UpperIdent) {
		return p.parseTypeAtom()
	}
	n := p.parseTypeName()
	for p.canStartTypeAtom() && !p.stop() {
		n.add(p.parseTypeAtom())
	}
	return p.finish(n)
}

func (p *Parser) parseTypeName() *Node {
	n := p.leaf(KindTypeRef, p.advance())
	for p.at(token.Dot) && p.prev().Touches(p.peek()) &&
		p.peekAt(1).Kind == token.UpperIdent && p.peek().Touches(p.peekAt(1)) {
		p.advance()
		n.Text += "." + p.advance().Text
	}
	return p.finish(n)
}

func (p *Parser) canStartTypeAtom() bool {
	switch p.peek().Kind {
	case token.LowerIdent, token.UpperIdent, token.LParen, token.LBrace:
		return true
	}
	return false
}

func (p *Parser) parseTypeAtom() *Node {
	switch p.peek().Kind {
	case token.LowerIdent:
		return p.leaf(KindTypeVar, p.advance())
	case token.UpperIdent:
		return p.parseTypeName()
	case token.LParen:
		return p.parseParenType()
	case token.LBrace:
		return p.parseRecordType()
	}
	return p.errorNode("expected a type")
}

func (p *Parser) parseParenType() *Node {
	open := p.advance()
	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	if p.at(token.RParen) {
		p.advance()
		return p.finish(newNode(KindUnitType, open.Span))
	}
	first := p.parseType()
	if !p.at(token.Comma) {
		p.expect(token.RParen)
		return first
	}
	n := newNode(KindTupleType, open.Span)
	n.add(first)
	for p.at(token.Comma) {
		p.advance()
		n.add(p.parseType())
	}
	p.expect(token.RParen)
	return p.finish(n)
}

// parseRecordType reads `{ a : T, ... }` or the extensible `{ r | a : T }`.
func (p *Parser) parseRecordType() *Node {
	open := p.advance()
	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	n := newNode(KindRecordType, open.Span)
	if p.at(token.LowerIdent) && p.peekAt(1).Kind == token.Pipe {
		n.set(FieldBase, p.leaf(KindTypeVar, p.advance()))
		p.advance()
	}
	for p.at(token.LowerIdent) {
		name := p.advance()
		field := newNode(KindFieldType, name.Span)
		field.set(FieldName, p.leaf(KindLowerName, name))
		if _, ok := p.expect(token.Colon); ok {
			field.set(FieldType, p.parseType())
		}
		n.add(p.finish(field))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.RBrace)
	return p.finish(n)
}
