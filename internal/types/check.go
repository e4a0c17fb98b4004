package types

import (
	"errors"
	"fmt"
	"sort"

	"elmls/internal/source"
	"elmls/internal/syntax"
)

// TypeChecker is the query surface code actions use.
type TypeChecker interface {
	// Infer returns the type of an expression, pattern or binding node.
	Infer(n *syntax.Node) (Type, bool)
	// Render prints t as it would be written inside tree.
	Render(t Type, tree *syntax.Tree) string
}

// ErrorKind classifies checker errors.
type ErrorKind uint8

const (
	ErrUnresolvedValue ErrorKind = iota + 1
	ErrUnresolvedConstructor
	ErrUnresolvedType
	ErrUnknownModule
	ErrMismatch
)

// Error is a problem found while checking one module.
type Error struct {
	Kind ErrorKind
	Span source.Span
	Name string
	Msg  string
}

// Checker holds the inference results for one module. It is safe for
// concurrent readers once Check has returned.
type Checker struct {
	tree     *syntax.Tree
	module   string
	importer Importer
	scope    *Scope

	top      map[string]*Scheme
	ctors    map[string]*Scheme
	typeDefs map[string]*TypeDef
	kernel   map[string]bool

	nodeTypes map[*syntax.Node]Type
	errs      []Error

	level  int
	nextID int
}

var _ TypeChecker = (*Checker)(nil)

// Check infers types for every declaration in tree. Imported modules are
// resolved through importer, with the prelude as fallback.
func Check(tree *syntax.Tree, importer Importer) *Checker {
	if importer == nil {
		importer = Prelude()
	}
	c := &Checker{
		tree:      tree,
		module:    tree.ModuleName(),
		importer:  importer,
		top:       map[string]*Scheme{},
		ctors:     map[string]*Scheme{},
		typeDefs:  map[string]*TypeDef{},
		kernel:    map[string]bool{},
		nodeTypes: map[*syntax.Node]Type{},
	}
	c.scope = NewScope(tree, importer)
	for _, node := range c.scope.missing {
		c.errorf(ErrUnknownModule, node.Field(syntax.FieldName), node.Name(),
			"I cannot find module `%s`", node.Name())
	}
	c.checkTypes()
	c.checkValues()
	return c
}

func (c *Checker) fresh(constraint string) *Var {
	c.nextID++
	return &Var{ID: c.nextID, Constraint: constraint, level: c.level}
}

func (c *Checker) errorf(kind ErrorKind, n *syntax.Node, name, format string, args ...any) {
	var sp source.Span
	if n != nil {
		sp = n.Span
	}
	c.errs = append(c.errs, Error{Kind: kind, Span: sp, Name: name, Msg: fmt.Sprintf(format, args...)})
}

// unifyAt unifies and reports a mismatch at n.
func (c *Checker) unifyAt(n *syntax.Node, expected, found Type) {
	err := c.unify(expected, found)
	if err == nil {
		return
	}
	msg := fmt.Sprintf("type mismatch: expected `%s`, found `%s`",
		c.Render(expected, c.tree), c.Render(found, c.tree))
	var me *mismatchError
	if errors.As(err, &me) && me.detail != "" {
		msg += " (" + me.detail + ")"
	}
	c.errorf(ErrMismatch, n, "", "%s", msg)
}

// Errors returns the problems found, in source order.
func (c *Checker) Errors() []Error {
	out := append([]Error(nil), c.errs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

// Tree returns the checked tree.
func (c *Checker) Tree() *syntax.Tree { return c.tree }

// Scope returns the import scope of the checked module.
func (c *Checker) Scope() *Scope { return c.scope }

// Infer implements TypeChecker.
func (c *Checker) Infer(n *syntax.Node) (Type, bool) {
	if n == nil {
		return nil, false
	}
	if t, ok := c.nodeTypes[n]; ok {
		return t, true
	}
	// The name of a declaration has the declaration's type.
	if n.Kind == syntax.KindLowerName && n.Parent != nil {
		switch n.Parent.Kind {
		case syntax.KindValueDecl, syntax.KindTypeAnnotation:
			return c.Infer(n.Parent)
		}
	}
	return nil, false
}

// Render implements TypeChecker.
func (c *Checker) Render(t Type, tree *syntax.Tree) string {
	if tree == nil || tree == c.tree {
		return RenderWith(t, c.scope)
	}
	return RenderWith(t, NewScope(tree, c.importer))
}

// TopLevel returns the scheme of a top-level value of this module.
func (c *Checker) TopLevel(name string) (*Scheme, bool) {
	sc, ok := c.top[name]
	return sc, ok
}

// UnusedImports returns explicit imports none of whose names are used.
func (c *Checker) UnusedImports() []*syntax.Node {
	var out []*syntax.Node
	for _, imp := range c.scope.imports {
		if imp.node != nil && !imp.used {
			out = append(out, imp.node)
		}
	}
	return out
}

// NamesInScope lists the unqualified value names visible at n.
func (c *Checker) NamesInScope(n *syntax.Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for name := range syntax.VisibleLocals(n) {
		add(name)
	}
	for name := range c.top {
		add(name)
	}
	for name := range c.ctors {
		add(name)
	}
	for _, name := range c.scope.ValueNames() {
		add(name)
	}
	sort.Strings(out)
	return out
}

// Interface collects what importers of this module can see.
func (c *Checker) Interface() *Interface {
	iface := newInterface(c.module)
	all := syntax.ExposingAll(c.tree)
	for name, sc := range c.top {
		if all || syntax.ExposedItem(c.tree, name) != nil {
			iface.Values[name] = sc
		}
	}
	for name, def := range c.typeDefs {
		item := syntax.ExposedItem(c.tree, name)
		if !all && item == nil {
			continue
		}
		iface.Types[name] = def
		if def.Alias != nil {
			if sc, ok := c.ctors[name]; ok {
				iface.Ctors[name] = sc
			}
			continue
		}
		if def.Opaque || (!all && item.FirstChild(syntax.KindDoubleDot) == nil) {
			continue
		}
		for _, v := range def.Variants {
			iface.Ctors[v] = c.ctors[v]
		}
	}
	return iface
}

// checkTypes registers union types and aliases, then their constructors.
func (c *Checker) checkTypes() {
	decls := c.tree.Root.ChildrenOf(syntax.KindTypeDecl, syntax.KindTypeAliasDecl)
	for _, decl := range decls {
		name := decl.Name()
		if name == "" {
			continue
		}
		def := &TypeDef{Name: c.module + "." + name}
		for range decl.ChildrenOf(syntax.KindTypeVar) {
			def.Params = append(def.Params, c.fresh(""))
		}
		c.typeDefs[name] = def
		c.scope.types[name] = typeEntry{def: def}
	}

	for _, decl := range decls {
		def, ok := c.typeDefs[decl.Name()]
		if !ok {
			continue
		}
		vars := map[string]*Var{}
		for i, p := range decl.ChildrenOf(syntax.KindTypeVar) {
			vars[p.Text] = def.Params[i]
		}
		params := make([]Type, len(def.Params))
		for i, v := range def.Params {
			params[i] = v
		}

		if decl.Kind == syntax.KindTypeAliasDecl {
			def.Alias = c.typeFromSyntax(decl.Field(syntax.FieldType), vars, false)
			if rec, ok := Unalias(def.Alias).(*Record); ok && rec.Ext == nil {
				fieldTypes := make([]Type, 0, len(rec.Fields))
				for _, f := range orderedRecordFields(decl.Field(syntax.FieldType), rec) {
					fieldTypes = append(fieldTypes, f.Type)
				}
				result := &Alias{Name: def.Name, Args: params, Real: def.Alias}
				c.ctors[decl.Name()] = closeScheme(Func(result, fieldTypes...))
			}
			continue
		}

		result := &Con{Name: def.Name, Args: params}
		variants := decl.ChildrenOf(syntax.KindUnionVariant)
		if len(variants) == 1 && variants[0].Name() == decl.Name() && IsPreludeModule(c.module) {
			def.Opaque = true
		}
		for _, v := range variants {
			var args []Type
			for _, a := range v.Args() {
				args = append(args, c.typeFromSyntax(a, vars, false))
			}
			def.Variants = append(def.Variants, v.Name())
			if !def.Opaque {
				c.ctors[v.Name()] = closeScheme(Func(result, args...))
			}
		}
	}
}

// orderedRecordFields returns the fields of a record alias in declaration
// order, which is the argument order of its constructor.
func orderedRecordFields(n *syntax.Node, rec *Record) []Field {
	byName := map[string]Field{}
	for _, f := range rec.Fields {
		byName[f.Name] = f
	}
	if n == nil || n.Kind != syntax.KindRecordType {
		return rec.Fields
	}
	out := make([]Field, 0, len(rec.Fields))
	for _, ft := range n.ChildrenOf(syntax.KindFieldType) {
		if f, ok := byName[ft.Name()]; ok {
			out = append(out, f)
		}
	}
	return out
}

// typeFromSyntax converts a type expression. Type variables are looked up
// in vars; when extend is set unknown variables are added to it.
func (c *Checker) typeFromSyntax(n *syntax.Node, vars map[string]*Var, extend bool) Type {
	if n == nil {
		return c.fresh("")
	}
	switch n.Kind {
	case syntax.KindTypeVar:
		if v, ok := vars[n.Text]; ok {
			return v
		}
		v := c.fresh(constraintOf(n.Text))
		if extend {
			vars[n.Text] = v
		}
		return v
	case syntax.KindTypeRef:
		var args []Type
		for _, a := range n.Args() {
			args = append(args, c.typeFromSyntax(a, vars, extend))
		}
		def, ok := c.lookupType(n)
		if !ok {
			c.errorf(ErrUnresolvedType, n, n.Text, "I cannot find a `%s` type", n.Text)
			return c.fresh("")
		}
		if len(args) != len(def.Params) {
			c.errorf(ErrMismatch, n, n.Text, "the `%s` type needs %d arguments, but got %d",
				n.Text, len(def.Params), len(args))
			return c.fresh("")
		}
		if def.Alias != nil {
			subst := map[*Var]Type{}
			for i, p := range def.Params {
				subst[p] = args[i]
			}
			return &Alias{Name: def.Name, Args: args, Real: substitute(def.Alias, subst)}
		}
		return &Con{Name: def.Name, Args: args}
	case syntax.KindFunctionType:
		parts := make([]Type, len(n.Children))
		for i, ch := range n.Children {
			parts[i] = c.typeFromSyntax(ch, vars, extend)
		}
		return Func(parts[len(parts)-1], parts[:len(parts)-1]...)
	case syntax.KindTupleType:
		elems := make([]Type, len(n.Children))
		for i, ch := range n.Children {
			elems[i] = c.typeFromSyntax(ch, vars, extend)
		}
		return &Tuple{Elems: elems}
	case syntax.KindUnitType:
		return Unit
	case syntax.KindRecordType:
		rec := &Record{}
		if base := n.Field(syntax.FieldBase); base != nil {
			rec.Ext = c.typeFromSyntax(base, vars, extend)
		}
		for _, ft := range n.ChildrenOf(syntax.KindFieldType) {
			rec.Fields = append(rec.Fields, Field{
				Name: ft.Name(),
				Type: c.typeFromSyntax(ft.Field(syntax.FieldType), vars, extend),
			})
		}
		sortFields(rec.Fields)
		return rec
	}
	return c.fresh("")
}

func constraintOf(name string) string {
	for _, class := range []string{"number", "comparable", "appendable", "compappend"} {
		if len(name) >= len(class) && name[:len(class)] == class {
			return class
		}
	}
	return ""
}

func (c *Checker) lookupType(n *syntax.Node) (*TypeDef, bool) {
	if q := n.Qualifier(); q != "" {
		return c.scope.qualifiedType(q, n.LocalName())
	}
	if def, ok := c.typeDefs[n.Text]; ok {
		return def, true
	}
	return c.scope.typeDef(n.Text)
}

// annotationScheme converts an annotation, quantifying all its variables.
func (c *Checker) annotationScheme(ann *syntax.Node) *Scheme {
	t := c.typeFromSyntax(ann.Field(syntax.FieldType), map[string]*Var{}, true)
	return closeScheme(t)
}

// checkValues infers top-level values. Annotated values get their declared
// scheme up front; unannotated ones are inferred one dependency group at a
// time so that each group is generalized before its users see it.
func (c *Checker) checkValues() {
	var unannotated []*syntax.Node
	annotated := map[*syntax.Node]*Scheme{}
	for _, n := range c.tree.Root.Children {
		switch n.Kind {
		case syntax.KindTypeAnnotation:
			sc := c.annotationScheme(n)
			c.nodeTypes[n] = sc.Type
			if decl := syntax.DeclarationFor(n); decl != nil {
				annotated[decl] = sc
			} else {
				c.kernel[n.Name()] = true
			}
			c.top[n.Name()] = sc
		case syntax.KindValueDecl:
			if _, ok := c.top[n.Name()]; ok && syntax.AnnotationFor(n) != nil {
				continue
			}
			if n.Name() != "" {
				unannotated = append(unannotated, n)
			}
		}
	}

	for _, group := range dependencyGroups(unannotated) {
		c.level++
		monos := make([]*Var, len(group))
		for i, decl := range group {
			monos[i] = c.fresh("")
			c.top[decl.Name()] = Mono(monos[i])
		}
		for i, decl := range group {
			t := c.inferDecl(newEnv(nil), decl)
			c.unifyAt(decl, monos[i], t)
		}
		c.level--
		for i, decl := range group {
			c.top[decl.Name()] = c.generalize(monos[i])
			c.nodeTypes[decl] = monos[i]
		}
	}

	for _, n := range c.tree.Root.ChildrenOf(syntax.KindValueDecl) {
		sc, ok := annotated[n]
		if !ok {
			continue
		}
		c.level++
		t := c.inferDecl(newEnv(nil), n)
		c.unifyAt(n.Field(syntax.FieldName), c.instantiate(sc), t)
		c.level--
		c.nodeTypes[n] = sc.Type
	}
}

// dependencyGroups orders declarations into strongly connected components
// of their references, dependencies first (Tarjan).
func dependencyGroups(decls []*syntax.Node) [][]*syntax.Node {
	index := map[string]int{}
	for i, d := range decls {
		index[d.Name()] = i
	}
	edges := make([][]int, len(decls))
	for i, d := range decls {
		seen := map[int]bool{}
		syntax.Inspect(d.Field(syntax.FieldBody), func(n *syntax.Node) bool {
			if n.Kind == syntax.KindValueRef && !syntax.IsQualified(n) {
				if j, ok := index[n.Text]; ok && !seen[j] {
					seen[j] = true
					edges[i] = append(edges[i], j)
				}
			}
			return true
		})
	}

	var (
		groups  [][]*syntax.Node
		stack   []int
		onStack = make([]bool, len(decls))
		indices = make([]int, len(decls))
		low     = make([]int, len(decls))
		counter = 1
	)
	var visit func(v int)
	visit = func(v int) {
		indices[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range edges[v] {
			if indices[w] == 0 {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indices[w])
			}
		}
		if low[v] != indices[v] {
			return
		}
		var group []*syntax.Node
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			group = append(group, decls[w])
			if w == v {
				break
			}
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Span.Start < group[j].Span.Start })
		groups = append(groups, group)
	}
	for v := range decls {
		if indices[v] == 0 {
			visit(v)
		}
	}
	return groups
}
