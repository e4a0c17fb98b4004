package types

// TypeDef describes a declared union type or alias.
type TypeDef struct {
	// Name is canonical, e.g. "Main.Msg".
	Name   string
	Params []*Var
	// Alias is the aliased type for `type alias`; nil for union types.
	Alias    Type
	Variants []string
	// Opaque hides the constructors of kernel types such as Int.
	Opaque bool
}

// Interface is what a module offers to its importers.
type Interface struct {
	Module string
	Values map[string]*Scheme
	Ctors  map[string]*Scheme
	Types  map[string]*TypeDef
}

func newInterface(module string) *Interface {
	return &Interface{
		Module: module,
		Values: map[string]*Scheme{},
		Ctors:  map[string]*Scheme{},
		Types:  map[string]*TypeDef{},
	}
}

// Importer resolves module names to interfaces.
type Importer interface {
	Import(module string) (*Interface, bool)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(module string) (*Interface, bool)

func (f ImporterFunc) Import(module string) (*Interface, bool) { return f(module) }

// Chain tries each importer in turn.
func Chain(importers ...Importer) Importer {
	return ImporterFunc(func(module string) (*Interface, bool) {
		for _, imp := range importers {
			if imp == nil {
				continue
			}
			if iface, ok := imp.Import(module); ok {
				return iface, true
			}
		}
		return nil, false
	})
}

// instantiate copies a scheme with fresh variables at the current level.
func (c *Checker) instantiate(s *Scheme) Type {
	if len(s.Vars) == 0 {
		return s.Type
	}
	subst := make(map[*Var]Type, len(s.Vars))
	for _, v := range s.Vars {
		subst[v] = c.fresh(v.Constraint)
	}
	return substitute(s.Type, subst)
}

func substitute(t Type, subst map[*Var]Type) Type {
	switch t := Prune(t).(type) {
	case *Var:
		if r, ok := subst[t]; ok {
			return r
		}
		return t
	case *Con:
		return &Con{Name: t.Name, Args: substituteAll(t.Args, subst)}
	case *Alias:
		return &Alias{Name: t.Name, Args: substituteAll(t.Args, subst), Real: substitute(t.Real, subst)}
	case *Fun:
		return &Fun{Param: substitute(t.Param, subst), Result: substitute(t.Result, subst)}
	case *Tuple:
		return &Tuple{Elems: substituteAll(t.Elems, subst)}
	case *Record:
		flat := FlattenRecord(t)
		out := &Record{Fields: make([]Field, len(flat.Fields))}
		for i, f := range flat.Fields {
			out.Fields[i] = Field{Name: f.Name, Type: substitute(f.Type, subst)}
		}
		if flat.Ext != nil {
			out.Ext = substitute(flat.Ext, subst)
		}
		return out
	}
	return t
}

func substituteAll(ts []Type, subst map[*Var]Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = substitute(t, subst)
	}
	return out
}

// generalize quantifies the variables created deeper than the current level.
func (c *Checker) generalize(t Type) *Scheme {
	var vars []*Var
	for _, v := range FreeVars(t) {
		if v.level > c.level {
			vars = append(vars, v)
		}
	}
	return &Scheme{Vars: vars, Type: t}
}

// closeScheme quantifies every free variable, as for annotations.
func closeScheme(t Type) *Scheme {
	return &Scheme{Vars: FreeVars(t), Type: t}
}
