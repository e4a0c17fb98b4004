package syntax

import (
	"elmls/internal/token"
)

// parsePattern reads a full pattern: constructor application, `::` and `as`.
func (p *Parser) parsePattern() *Node {
	pat := p.parseConsPattern()
	for p.at(token.KwAs) {
		p.advance()
		t, ok := p.expect(token.LowerIdent)
		if !ok {
			return pat
		}
		n := newNode(KindAliasPattern, pat.Span)
		n.set(FieldPattern, pat)
		n.set(FieldName, p.leaf(KindLowerName, t))
		pat = p.finish(n)
	}
	return pat
}

func (p *Parser) parseConsPattern() *Node {
	left := p.parseAppPattern()
	if !p.atOp("::") {
		return left
	}
	p.advance()
	n := newNode(KindConsPattern, left.Span)
	n.set(FieldLeft, left)
	n.set(FieldRight, p.parseConsPattern())
	return p.finish(n)
}

func (p *Parser) parseAppPattern() *Node {
	if !p.at(token.UpperIdent) {
		return p.parsePatternAtom()
	}
	n := p.parseConstructorName()
	for p.canStartPatternAtom() && !p.stop() {
		n.add(p.parsePatternAtom())
	}
	return p.finish(n)
}

func (p *Parser) parseConstructorName() *Node {
	n := p.leaf(KindConstructorPattern, p.advance())
	for p.at(token.Dot) && p.prev().Touches(p.peek()) &&
		p.peekAt(1).Kind == token.UpperIdent && p.peek().Touches(p.peekAt(1)) {
		p.advance()
		n.Text += "." + p.advance().Text
	}
	return p.finish(n)
}

func (p *Parser) canStartPatternAtom() bool {
	switch p.peek().Kind {
	case token.Underscore, token.LowerIdent, token.UpperIdent, token.IntLit, token.FloatLit,
		token.StringLit, token.CharLit, token.LParen, token.LBracket, token.LBrace:
		return true
	}
	return false
}

func (p *Parser) parsePatternAtom() *Node {
	t := p.peek()
	switch t.Kind {
	case token.Underscore:
		return p.leaf(KindWildcardPattern, p.advance())
	case token.LowerIdent:
		return p.leaf(KindVarPattern, p.advance())
	case token.UpperIdent:
		return p.parseConstructorName()
	case token.IntLit:
		return p.leaf(KindIntLit, p.advance())
	case token.FloatLit:
		return p.leaf(KindFloatLit, p.advance())
	case token.StringLit:
		return p.leaf(KindStringLit, p.advance())
	case token.CharLit:
		return p.leaf(KindCharLit, p.advance())
	case token.LParen:
		return p.parseParenPattern()
	case token.LBracket:
		open := p.advance()
		n := newNode(KindListPattern, open.Span)
		if !p.at(token.RBracket) {
			n.add(p.parsePattern())
			for p.at(token.Comma) {
				p.advance()
				n.add(p.parsePattern())
			}
		}
		p.expect(token.RBracket)
		return p.finish(n)
	case token.LBrace:
		open := p.advance()
		n := newNode(KindRecordPattern, open.Span)
		for p.at(token.LowerIdent) {
			n.add(p.leaf(KindLowerName, p.advance()))
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		p.expect(token.RBrace)
		return p.finish(n)
	}
	return p.errorNode("expected a pattern")
}

func (p *Parser) parseParenPattern() *Node {
	open := p.advance()
	if p.at(token.RParen) {
		p.advance()
		return p.finish(newNode(KindUnitPattern, open.Span))
	}
	first := p.parsePattern()
	if !p.at(token.Comma) {
		p.expect(token.RParen)
		return first
	}
	n := newNode(KindTuplePattern, open.Span)
	n.add(first)
	for p.at(token.Comma) {
		p.advance()
		n.add(p.parsePattern())
	}
	p.expect(token.RParen)
	return p.finish(n)
}
