package types

import (
	"elmls/internal/syntax"
)

// env is a chain of local scopes.
type env struct {
	parent *env
	vars   map[string]*Scheme
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vars: map[string]*Scheme{}}
}

func (e *env) lookup(name string) (*Scheme, bool) {
	for ; e != nil; e = e.parent {
		if sc, ok := e.vars[name]; ok {
			return sc, true
		}
	}
	return nil, false
}

func (e *env) bind(name string, sc *Scheme) {
	e.vars[name] = sc
}

// inferDecl infers `name p1 .. pn = body` as p1 -> .. -> pn -> body.
func (c *Checker) inferDecl(e *env, decl *syntax.Node) Type {
	inner := newEnv(e)
	var params []Type
	for _, p := range syntax.Params(decl) {
		params = append(params, c.inferPattern(inner, p))
	}
	body := c.inferExpr(inner, decl.Field(syntax.FieldBody))
	t := Func(body, params...)
	c.nodeTypes[decl] = t
	return t
}

func (c *Checker) inferExpr(e *env, n *syntax.Node) Type {
	if n == nil {
		return c.fresh("")
	}
	t := c.inferExprKind(e, n)
	c.nodeTypes[n] = t
	return t
}

func (c *Checker) inferExprKind(e *env, n *syntax.Node) Type {
	switch n.Kind {
	case syntax.KindValueRef:
		return c.inferValueRef(e, n)

	case syntax.KindConstructorRef:
		if sc, ok := c.lookupCtor(n); ok {
			return c.instantiate(sc)
		}
		c.errorf(ErrUnresolvedConstructor, n, n.Text, "I cannot find a `%s` constructor", n.Text)
		return c.fresh("")

	case syntax.KindOperatorRef:
		if t, ok := c.operatorType(n.Text); ok {
			return t
		}
		c.errorf(ErrUnresolvedValue, n, n.Text, "I do not recognize the (%s) operator", n.Text)
		return c.fresh("")

	case syntax.KindCall:
		fn := c.inferExpr(e, n.Field(syntax.FieldTarget))
		args := n.Args()
		argTypes := make([]Type, len(args))
		for i, a := range args {
			argTypes[i] = c.inferExpr(e, a)
		}
		result := c.fresh("")
		c.unifyAt(n, fn, Func(result, argTypes...))
		return result

	case syntax.KindBinOp:
		left := c.inferExpr(e, n.Field(syntax.FieldLeft))
		right := c.inferExpr(e, n.Field(syntax.FieldRight))
		op, ok := c.operatorType(n.Text)
		if !ok {
			c.errorf(ErrUnresolvedValue, n, n.Text, "I do not recognize the (%s) operator", n.Text)
			return c.fresh("")
		}
		result := c.fresh("")
		c.unifyAt(n, op, Func(result, left, right))
		return result

	case syntax.KindNegate:
		t := c.inferExpr(e, n.Field(syntax.FieldValue))
		c.unifyAt(n, c.fresh("number"), t)
		return t

	case syntax.KindLambda:
		inner := newEnv(e)
		var params []Type
		for _, p := range syntax.Params(n) {
			params = append(params, c.inferPattern(inner, p))
		}
		return Func(c.inferExpr(inner, n.Field(syntax.FieldBody)), params...)

	case syntax.KindIf:
		cond := n.Field(syntax.FieldCondition)
		c.unifyAt(cond, Bool, c.inferExpr(e, cond))
		then := c.inferExpr(e, n.Field(syntax.FieldThen))
		els := n.Field(syntax.FieldElse)
		c.unifyAt(els, then, c.inferExpr(e, els))
		return then

	case syntax.KindCase:
		subject := c.inferExpr(e, n.Field(syntax.FieldSubject))
		result := c.fresh("")
		for _, branch := range n.ChildrenOf(syntax.KindCaseBranch) {
			inner := newEnv(e)
			pat := branch.Field(syntax.FieldPattern)
			c.unifyAt(pat, subject, c.inferPattern(inner, pat))
			body := branch.Field(syntax.FieldBody)
			c.unifyAt(body, result, c.inferExpr(inner, body))
			c.nodeTypes[branch] = result
		}
		return result

	case syntax.KindLet:
		return c.inferLet(e, n)

	case syntax.KindParen:
		return c.inferExpr(e, n.Field(syntax.FieldValue))

	case syntax.KindUnit:
		return Unit

	case syntax.KindTuple:
		elems := make([]Type, len(n.Children))
		for i, ch := range n.Children {
			elems[i] = c.inferExpr(e, ch)
		}
		return &Tuple{Elems: elems}

	case syntax.KindList:
		elem := Type(c.fresh(""))
		for _, item := range n.Children {
			c.unifyAt(item, elem, c.inferExpr(e, item))
		}
		return List(elem)

	case syntax.KindRecord:
		rec := &Record{}
		for _, fa := range n.ChildrenOf(syntax.KindFieldAssign) {
			rec.Fields = append(rec.Fields, Field{Name: fa.Name(), Type: c.inferFieldAssign(e, fa)})
		}
		sortFields(rec.Fields)
		return rec

	case syntax.KindRecordUpdate:
		target := c.inferExpr(e, n.Field(syntax.FieldRecord))
		shape := &Record{Ext: c.fresh("")}
		for _, fa := range n.ChildrenOf(syntax.KindFieldAssign) {
			shape.Fields = append(shape.Fields, Field{Name: fa.Name(), Type: c.inferFieldAssign(e, fa)})
		}
		sortFields(shape.Fields)
		c.unifyAt(n, target, shape)
		return target

	case syntax.KindFieldAccess:
		target := c.inferExpr(e, n.Field(syntax.FieldTarget))
		field := c.fresh("")
		name := n.Field(syntax.FieldName)
		c.unifyAt(n, &Record{Fields: []Field{{Name: name.Text, Type: field}}, Ext: c.fresh("")}, target)
		c.nodeTypes[name] = field
		return field

	case syntax.KindFieldAccessor:
		field := c.fresh("")
		rec := &Record{Fields: []Field{{Name: n.Text[1:], Type: field}}, Ext: c.fresh("")}
		return Func(field, rec)

	case syntax.KindIntLit:
		return c.fresh("number")
	case syntax.KindFloatLit:
		return Float
	case syntax.KindStringLit:
		return String
	case syntax.KindCharLit:
		return Char
	}
	return c.fresh("")
}

func (c *Checker) inferFieldAssign(e *env, fa *syntax.Node) Type {
	t := c.inferExpr(e, fa.Field(syntax.FieldValue))
	c.nodeTypes[fa] = t
	return t
}

func (c *Checker) inferValueRef(e *env, n *syntax.Node) Type {
	if q := n.Qualifier(); q != "" {
		if sc, ok := c.scope.qualifiedValue(q, n.LocalName()); ok {
			return c.instantiate(sc)
		}
		if !c.scope.KnowsQualifier(q) {
			c.errorf(ErrUnresolvedValue, n, n.Text, "I cannot find a `%s` import", q)
		} else {
			c.errorf(ErrUnresolvedValue, n, n.Text, "the `%s` module does not expose `%s`", q, n.LocalName())
		}
		return c.fresh("")
	}
	if sc, ok := e.lookup(n.Text); ok {
		return c.instantiate(sc)
	}
	if sc, ok := c.top[n.Text]; ok {
		return c.instantiate(sc)
	}
	if sc, ok := c.scope.value(n.Text); ok {
		return c.instantiate(sc)
	}
	c.errorf(ErrUnresolvedValue, n, n.Text, "I cannot find a `%s` variable", n.Text)
	return c.fresh("")
}

func (c *Checker) lookupCtor(n *syntax.Node) (*Scheme, bool) {
	if q := n.Qualifier(); q != "" {
		return c.scope.qualifiedCtor(q, n.LocalName())
	}
	if sc, ok := c.ctors[n.Text]; ok {
		return sc, true
	}
	return c.scope.ctor(n.Text)
}

// inferLet handles a let block. Annotated bindings use their annotation;
// the others are generalized one at a time in source order.
func (c *Checker) inferLet(e *env, n *syntax.Node) Type {
	inner := newEnv(e)
	annotations := map[string]*Scheme{}
	for _, b := range n.ChildrenOf(syntax.KindTypeAnnotation) {
		sc := c.annotationScheme(b)
		annotations[b.Name()] = sc
		c.nodeTypes[b] = sc.Type
	}

	monos := map[*syntax.Node]*Var{}
	c.level++
	for _, b := range n.ChildrenOf(syntax.KindValueDecl) {
		name := b.Name()
		if name == "" {
			continue
		}
		if sc, ok := annotations[name]; ok {
			inner.bind(name, sc)
			continue
		}
		monos[b] = c.fresh("")
		inner.bind(name, Mono(monos[b]))
	}
	c.level--

	for _, b := range n.ChildrenOf(syntax.KindValueDecl) {
		name := b.Name()
		c.level++
		if name == "" {
			body := c.inferExpr(inner, b.Field(syntax.FieldBody))
			c.level--
			pat := b.Field(syntax.FieldPattern)
			c.unifyAt(pat, c.inferPattern(inner, pat), body)
			c.nodeTypes[b] = body
			continue
		}
		t := c.inferDecl(inner, b)
		if sc, ok := annotations[name]; ok {
			c.unifyAt(b.Field(syntax.FieldName), c.instantiate(sc), t)
			c.level--
			c.nodeTypes[b] = sc.Type
			continue
		}
		c.unifyAt(b, monos[b], t)
		c.level--
		inner.bind(name, c.generalize(monos[b]))
		c.nodeTypes[b] = monos[b]
	}
	return c.inferExpr(inner, n.Field(syntax.FieldBody))
}

func (c *Checker) inferPattern(e *env, p *syntax.Node) Type {
	if p == nil {
		return c.fresh("")
	}
	t := c.inferPatternKind(e, p)
	c.nodeTypes[p] = t
	return t
}

func (c *Checker) inferPatternKind(e *env, p *syntax.Node) Type {
	switch p.Kind {
	case syntax.KindVarPattern:
		v := c.fresh("")
		e.bind(p.Text, Mono(v))
		return v
	case syntax.KindWildcardPattern:
		return c.fresh("")
	case syntax.KindUnitPattern:
		return Unit
	case syntax.KindTuplePattern:
		elems := make([]Type, len(p.Children))
		for i, ch := range p.Children {
			elems[i] = c.inferPattern(e, ch)
		}
		return &Tuple{Elems: elems}
	case syntax.KindListPattern:
		elem := Type(c.fresh(""))
		for _, ch := range p.Children {
			c.unifyAt(ch, elem, c.inferPattern(e, ch))
		}
		return List(elem)
	case syntax.KindConsPattern:
		head := c.inferPattern(e, p.Field(syntax.FieldLeft))
		tail := p.Field(syntax.FieldRight)
		t := List(head)
		c.unifyAt(tail, t, c.inferPattern(e, tail))
		return t
	case syntax.KindRecordPattern:
		rec := &Record{Ext: c.fresh("")}
		for _, name := range p.ChildrenOf(syntax.KindLowerName) {
			v := c.fresh("")
			e.bind(name.Text, Mono(v))
			c.nodeTypes[name] = v
			rec.Fields = append(rec.Fields, Field{Name: name.Text, Type: v})
		}
		sortFields(rec.Fields)
		return rec
	case syntax.KindAliasPattern:
		t := c.inferPattern(e, p.Field(syntax.FieldPattern))
		if name := p.Field(syntax.FieldName); name != nil {
			e.bind(name.Text, Mono(t))
			c.nodeTypes[name] = t
		}
		return t
	case syntax.KindConstructorPattern:
		args := p.Args()
		argTypes := make([]Type, len(args))
		for i, a := range args {
			argTypes[i] = c.inferPattern(e, a)
		}
		sc, ok := c.lookupCtor(p)
		if !ok {
			c.errorf(ErrUnresolvedConstructor, p, p.Text, "I cannot find a `%s` constructor", p.Text)
			return c.fresh("")
		}
		result := c.fresh("")
		c.unifyAt(p, c.instantiate(sc), Func(result, argTypes...))
		return result
	case syntax.KindIntLit:
		return c.fresh("number")
	case syntax.KindFloatLit:
		return Float
	case syntax.KindStringLit:
		return String
	case syntax.KindCharLit:
		return Char
	}
	return c.fresh("")
}
