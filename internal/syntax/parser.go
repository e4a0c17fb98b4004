package syntax

import (
	"fmt"

	"elmls/internal/lexer"
	"elmls/internal/source"
	"elmls/internal/token"
)

// Parser holds the state for parsing one file. Layout is handled with a
// single indentation limit: a token that starts a line at or left of
// indent ends the construct being parsed.
type Parser struct {
	file   *source.File
	toks   []token.Token
	pos    int
	indent int
	errs   []Error
}

// Parse lexes and parses file. It always returns a tree; problems are
// collected in Tree.Errors and unparseable regions become error nodes.
func Parse(file *source.File) *Tree {
	lx := lexer.New(file)
	p := &Parser{
		file: file,
		toks: lx.All(),
	}
	for _, e := range lx.Errors() {
		p.errs = append(p.errs, Error{Span: e.Span, Msg: e.Msg})
	}
	root := p.parseFile()
	return &Tree{File: file, Root: root, Errors: p.errs}
}

// ParseText is a convenience for tests and tools working on in-memory text.
func ParseText(uri, text string) *Tree {
	return Parse(source.NewVirtualFile(uri, text))
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) prev() token.Token {
	if p.pos == 0 {
		return token.Token{}
	}
	return p.toks[p.pos-1]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOp(text string) bool {
	t := p.peek()
	return t.Kind == token.Operator && t.Text == text
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

// stop reports whether the next token ends the current layout block.
func (p *Parser) stop() bool {
	t := p.peek()
	return t.Kind == token.EOF || (t.FirstOnLine && t.Col <= p.indent)
}

// lastEnd is the end offset of the most recently consumed token.
func (p *Parser) lastEnd() uint32 {
	return p.prev().Span.End
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf(p.peek().Span, "expected %v, found %s", k, describe(p.peek()))
	return token.Token{Kind: token.Invalid, Span: p.emptyHere()}, false
}

func (p *Parser) errorf(sp source.Span, format string, args ...any) {
	p.errs = append(p.errs, Error{Span: sp, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) emptyHere() source.Span {
	end := p.lastEnd()
	return source.Span{Start: end, End: end}
}

func (p *Parser) leaf(kind Kind, tok token.Token) *Node {
	n := newNode(kind, tok.Span)
	n.Text = tok.Text
	return n
}

func (p *Parser) finish(n *Node) *Node {
	if end := p.lastEnd(); end > n.Span.End {
		n.Span.End = end
	}
	return n
}

// errorNode reports msg at the next token and consumes it unless it belongs
// to an enclosing construct.
func (p *Parser) errorNode(msg string) *Node {
	t := p.peek()
	p.errorf(t.Span, "%s, found %s", msg, describe(t))
	if p.stop() || closes(t.Kind) {
		return newNode(KindError, p.emptyHere())
	}
	p.advance()
	n := newNode(KindError, t.Span)
	n.Text = t.Text
	return n
}

func closes(k token.Kind) bool {
	switch k {
	case token.RParen, token.RBracket, token.RBrace, token.Comma,
		token.KwIn, token.KwThen, token.KwElse, token.KwOf, token.Equals, token.Arrow:
		return true
	default:
		return false
	}
}

func describe(t token.Token) string {
	switch t.Kind {
	case token.EOF:
		return "end of file"
	case token.LowerIdent, token.UpperIdent, token.Operator, token.IntLit, token.FloatLit:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Kind.String()
	}
}

// parseFile reads the optional module header, then top-level items until EOF.
// Items must start at column 0; anything else is skipped up to the next one.
func (p *Parser) parseFile() *Node {
	root := newNode(KindFile, source.Span{Start: 0, End: p.file.Len()})
	if p.at(token.KwModule) || (p.at(token.KwPort) && p.peekAt(1).Kind == token.KwModule) {
		root.add(p.parseModuleDecl())
	}
	for !p.at(token.EOF) {
		t := p.peek()
		if !t.FirstOnLine || t.Col != 0 {
			root.add(p.resyncTop("top-level declarations must start at the beginning of a line"))
			continue
		}
		var item *Node
		switch t.Kind {
		case token.KwImport:
			item = p.parseImport()
		case token.KwType:
			if p.peekAt(1).Kind == token.KwAlias {
				item = p.parseTypeAlias()
			} else {
				item = p.parseTypeDecl()
			}
		case token.LowerIdent:
			if p.peekAt(1).Kind == token.Colon {
				item = p.parseAnnotation()
			} else {
				item = p.parseValueDecl()
			}
		default:
			item = p.resyncTop("expected a declaration")
		}
		root.add(item)
	}
	return root
}

// resyncTop skips tokens up to the next line starting at column 0.
func (p *Parser) resyncTop(msg string) *Node {
	first := p.advance()
	p.errorf(first.Span, "%s, found %s", msg, describe(first))
	n := newNode(KindError, first.Span)
	for !p.at(token.EOF) && !(p.peek().FirstOnLine && p.peek().Col == 0) {
		p.advance()
	}
	return p.finish(n)
}

func (p *Parser) parseModuleDecl() *Node {
	start := p.advance()
	if start.Kind == token.KwPort {
		p.advance()
	}
	n := newNode(KindModuleDecl, start.Span)
	saved := p.indent
	p.indent = 0
	defer func() { p.indent = saved }()

	n.set(FieldName, p.parseModuleName())
	if _, ok := p.expect(token.KwExposing); ok {
		n.set(FieldExposing, p.parseExposingList())
	}
	return p.finish(n)
}

// parseModuleName reads Upper(.Upper)* with no spaces around the dots.
func (p *Parser) parseModuleName() *Node {
	t, ok := p.expect(token.UpperIdent)
	if !ok {
		return newNode(KindError, t.Span)
	}
	n := p.leaf(KindModuleName, t)
	for p.at(token.Dot) && p.prev().Touches(p.peek()) &&
		p.peekAt(1).Kind == token.UpperIdent && p.peek().Touches(p.peekAt(1)) {
		p.advance()
		part := p.advance()
		n.Text += "." + part.Text
	}
	return p.finish(n)
}

func (p *Parser) parseExposingList() *Node {
	open, ok := p.expect(token.LParen)
	if !ok {
		return newNode(KindError, open.Span)
	}
	n := newNode(KindExposingList, open.Span)
	if p.at(token.DotDot) {
		n.add(p.leaf(KindDoubleDot, p.advance()))
		p.expect(token.RParen)
		return p.finish(n)
	}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		n.add(p.parseExposedItem())
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	p.expect(token.RParen)
	return p.finish(n)
}

func (p *Parser) parseExposedItem() *Node {
	t := p.peek()
	switch t.Kind {
	case token.LowerIdent:
		return p.leaf(KindExposedValue, p.advance())
	case token.UpperIdent:
		n := p.leaf(KindExposedType, p.advance())
		if p.at(token.LParen) && p.peekAt(1).Kind == token.DotDot {
			p.advance()
			n.add(p.leaf(KindDoubleDot, p.advance()))
			p.expect(token.RParen)
		}
		return p.finish(n)
	case token.LParen:
		if p.peekAt(1).Kind == token.Operator && p.peekAt(2).Kind == token.RParen {
			open := p.advance()
			op := p.advance()
			p.advance()
			n := newNode(KindExposedOperator, open.Span)
			n.Text = op.Text
			return p.finish(n)
		}
	}
	return p.errorNode("expected an exposed name")
}

func (p *Parser) parseImport() *Node {
	start := p.advance()
	n := newNode(KindImportDecl, start.Span)
	n.set(FieldName, p.parseModuleName())
	if p.at(token.KwAs) {
		p.advance()
		if t, ok := p.expect(token.UpperIdent); ok {
			n.set(FieldAlias, p.leaf(KindUpperName, t))
		}
	}
	if p.at(token.KwExposing) {
		p.advance()
		n.set(FieldExposing, p.parseExposingList())
	}
	return p.finish(n)
}

func (p *Parser) parseTypeParams(n *Node) {
	for p.at(token.LowerIdent) {
		n.add(p.leaf(KindTypeVar, p.advance()))
	}
}

func (p *Parser) parseTypeAlias() *Node {
	start := p.advance()
	p.advance() // alias
	n := newNode(KindTypeAliasDecl, start.Span)
	if t, ok := p.expect(token.UpperIdent); ok {
		n.set(FieldName, p.leaf(KindUpperName, t))
	}
	p.parseTypeParams(n)
	if _, ok := p.expect(token.Equals); ok {
		n.set(FieldType, p.parseType())
	}
	return p.finish(n)
}

func (p *Parser) parseTypeDecl() *Node {
	start := p.advance()
	n := newNode(KindTypeDecl, start.Span)
	if t, ok := p.expect(token.UpperIdent); ok {
		n.set(FieldName, p.leaf(KindUpperName, t))
	}
	p.parseTypeParams(n)
	if _, ok := p.expect(token.Equals); !ok {
		return p.finish(n)
	}
	for {
		n.add(p.parseUnionVariant())
		if !p.at(token.Pipe) || p.peek().FirstOnLine && p.peek().Col <= p.indent {
			break
		}
		p.advance()
	}
	return p.finish(n)
}

func (p *Parser) parseUnionVariant() *Node {
	t, ok := p.expect(token.UpperIdent)
	if !ok {
		return newNode(KindError, t.Span)
	}
	n := newNode(KindUnionVariant, t.Span)
	n.set(FieldName, p.leaf(KindUpperName, t))
	for p.canStartTypeAtom() && !p.stop() {
		n.add(p.parseTypeAtom())
	}
	return p.finish(n)
}

func (p *Parser) parseAnnotation() *Node {
	name := p.advance()
	n := newNode(KindTypeAnnotation, name.Span)
	n.set(FieldName, p.leaf(KindLowerName, name))
	p.advance() // :
	n.set(FieldType, p.parseType())
	return p.finish(n)
}

// parseValueDecl reads `name pat* = expr`, or `pattern = expr` for
// destructuring let bindings.
func (p *Parser) parseValueDecl() *Node {
	first := p.peek()
	n := newNode(KindValueDecl, first.Span)
	if first.Kind == token.LowerIdent {
		n.set(FieldName, p.leaf(KindLowerName, p.advance()))
		for !p.at(token.Equals) && p.canStartPatternAtom() && !p.stop() {
			n.add(p.parsePatternAtom())
		}
	} else {
		n.set(FieldPattern, p.parsePattern())
	}
	if _, ok := p.expect(token.Equals); !ok {
		return p.finish(n)
	}
	n.set(FieldBody, p.parseExpr())
	return p.finish(n)
}
