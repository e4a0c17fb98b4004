package types

import (
	"strings"

	"elmls/internal/syntax"
)

type importEntry struct {
	node      *syntax.Node // nil for implicit imports
	iface     *Interface
	qualifier string
	used      bool
}

type valueEntry struct {
	scheme *Scheme
	imp    *importEntry
}

type typeEntry struct {
	def *TypeDef
	imp *importEntry
}

// Scope holds the names a module sees through its imports, plus its own
// type declarations for rendering.
type Scope struct {
	module  string
	values  map[string]valueEntry
	ctors   map[string]valueEntry
	types   map[string]typeEntry
	quals   map[string][]*importEntry
	imports []*importEntry
	missing []*syntax.Node
	// qualifiers maps module names to how they are written, including
	// imports that did not resolve.
	qualifiers map[string]string
}

type defaultImport struct {
	module  string
	all     bool
	types   []string
	ctorsOf []string
}

// Every module implicitly imports these.
var defaultImports = []defaultImport{
	{module: "Basics", all: true},
	{module: "List", types: []string{"List"}},
	{module: "Maybe", types: []string{"Maybe"}, ctorsOf: []string{"Maybe"}},
	{module: "String", types: []string{"String"}},
	{module: "Char", types: []string{"Char"}},
	{module: "Tuple"},
	{module: "Debug"},
}

// NewScope resolves the imports of tree through importer. Imports of
// unknown modules are recorded and otherwise ignored.
func NewScope(tree *syntax.Tree, importer Importer) *Scope {
	s := &Scope{
		module: tree.ModuleName(),
		values: map[string]valueEntry{},
		ctors:  map[string]valueEntry{},
		types:  map[string]typeEntry{},
		quals:  map[string][]*importEntry{},

		qualifiers: map[string]string{},
	}
	for _, d := range defaultImports {
		if d.module == s.module || isPreludeDependency(s.module, d.module) {
			continue
		}
		iface, ok := importer.Import(d.module)
		if !ok {
			continue
		}
		imp := s.addImport(nil, iface, d.module)
		if d.all {
			s.exposeAll(imp)
			continue
		}
		for _, name := range d.types {
			s.exposeType(imp, name, false)
		}
		for _, name := range d.ctorsOf {
			s.exposeType(imp, name, true)
		}
	}

	for _, node := range tree.Imports() {
		name := node.Name()
		qualifier := name
		if alias := node.Field(syntax.FieldAlias); alias != nil {
			qualifier = alias.Text
		}
		if _, seen := s.qualifiers[name]; !seen || s.qualifiers[name] == name {
			s.qualifiers[name] = qualifier
		}
		iface, ok := importer.Import(name)
		if !ok {
			s.missing = append(s.missing, node)
			continue
		}
		imp := s.addImport(node, iface, qualifier)
		list := node.Field(syntax.FieldExposing)
		if list == nil {
			continue
		}
		if list.FirstChild(syntax.KindDoubleDot) != nil {
			s.exposeAll(imp)
			continue
		}
		for _, item := range list.Children {
			switch item.Kind {
			case syntax.KindExposedValue:
				if sc, ok := iface.Values[item.Text]; ok {
					s.values[item.Text] = valueEntry{scheme: sc, imp: imp}
				}
			case syntax.KindExposedType:
				s.exposeType(imp, item.Text, item.FirstChild(syntax.KindDoubleDot) != nil)
			}
		}
	}

	for _, decl := range tree.Root.Children {
		if decl.Kind == syntax.KindTypeDecl || decl.Kind == syntax.KindTypeAliasDecl {
			name := decl.Name()
			s.types[name] = typeEntry{def: &TypeDef{Name: s.module + "." + name}}
		}
	}
	return s
}

// Prelude modules import each other explicitly, never implicitly.
func isPreludeDependency(module, dep string) bool {
	_, isPrelude := preludeSources[module]
	return isPrelude && dep != "Basics"
}

func (s *Scope) addImport(node *syntax.Node, iface *Interface, qualifier string) *importEntry {
	imp := &importEntry{node: node, iface: iface, qualifier: qualifier}
	s.imports = append(s.imports, imp)
	if _, ok := s.qualifiers[iface.Module]; !ok {
		s.qualifiers[iface.Module] = qualifier
	}
	s.quals[qualifier] = append(s.quals[qualifier], imp)
	return imp
}

func (s *Scope) exposeAll(imp *importEntry) {
	for name, sc := range imp.iface.Values {
		s.values[name] = valueEntry{scheme: sc, imp: imp}
	}
	for name, sc := range imp.iface.Ctors {
		s.ctors[name] = valueEntry{scheme: sc, imp: imp}
	}
	for name, def := range imp.iface.Types {
		s.types[name] = typeEntry{def: def, imp: imp}
	}
}

func (s *Scope) exposeType(imp *importEntry, name string, withVariants bool) {
	def, ok := imp.iface.Types[name]
	if !ok {
		return
	}
	s.types[name] = typeEntry{def: def, imp: imp}
	if sc, ok := imp.iface.Ctors[name]; ok && def.Alias != nil {
		// record alias constructor
		s.ctors[name] = valueEntry{scheme: sc, imp: imp}
	}
	if !withVariants {
		return
	}
	for _, v := range def.Variants {
		if sc, ok := imp.iface.Ctors[v]; ok {
			s.ctors[v] = valueEntry{scheme: sc, imp: imp}
		}
	}
}

func markUsed(imp *importEntry) {
	if imp != nil {
		imp.used = true
	}
}

func (s *Scope) value(name string) (*Scheme, bool) {
	e, ok := s.values[name]
	if ok {
		markUsed(e.imp)
	}
	return e.scheme, ok
}

func (s *Scope) ctor(name string) (*Scheme, bool) {
	e, ok := s.ctors[name]
	if ok {
		markUsed(e.imp)
	}
	return e.scheme, ok
}

func (s *Scope) typeDef(name string) (*TypeDef, bool) {
	e, ok := s.types[name]
	if ok {
		markUsed(e.imp)
	}
	return e.def, ok
}

func (s *Scope) qualifiedValue(qualifier, name string) (*Scheme, bool) {
	for _, imp := range s.quals[qualifier] {
		if sc, ok := imp.iface.Values[name]; ok {
			imp.used = true
			return sc, true
		}
	}
	return nil, false
}

func (s *Scope) qualifiedCtor(qualifier, name string) (*Scheme, bool) {
	for _, imp := range s.quals[qualifier] {
		if sc, ok := imp.iface.Ctors[name]; ok {
			imp.used = true
			return sc, true
		}
	}
	return nil, false
}

func (s *Scope) qualifiedType(qualifier, name string) (*TypeDef, bool) {
	for _, imp := range s.quals[qualifier] {
		if def, ok := imp.iface.Types[name]; ok {
			imp.used = true
			return def, true
		}
	}
	return nil, false
}

// KnowsQualifier reports whether qualifier names an import or alias.
func (s *Scope) KnowsQualifier(qualifier string) bool {
	return len(s.quals[qualifier]) > 0
}

// ValueNames lists the unqualified value and constructor names in scope.
func (s *Scope) ValueNames() []string {
	out := make([]string, 0, len(s.values)+len(s.ctors))
	for name := range s.values {
		out = append(out, name)
	}
	for name := range s.ctors {
		out = append(out, name)
	}
	return out
}

// QualifierFor returns how module is referred to in this scope, or "".
func (s *Scope) QualifierFor(module string) string {
	return s.qualifiers[module]
}

// TypeName implements Namer: a type visible unqualified is printed bare,
// otherwise it is qualified the way the module is imported.
func (s *Scope) TypeName(canonical string) string {
	i := strings.LastIndexByte(canonical, '.')
	if i < 0 {
		return canonical
	}
	module, local := canonical[:i], canonical[i+1:]
	if e, ok := s.types[local]; ok && e.def.Name == canonical {
		return local
	}
	if q := s.QualifierFor(module); q != "" {
		return q + "." + local
	}
	return canonical
}
