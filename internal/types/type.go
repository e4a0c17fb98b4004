package types

import (
	"sort"
)

// Type is an inferred or declared type. Type variables are mutable cells
// that get linked during unification; call Prune before inspecting one.
type Type interface {
	isType()
}

// Var is a unification variable. Constraint is one of the built-in type
// classes ("number", "comparable", "appendable", "compappend") or empty.
type Var struct {
	ID         int
	Constraint string
	level      int
	link       Type
}

// Con is a named type constructor applied to arguments, e.g. Maybe Int.
// Name is canonical: "Maybe.Maybe", "Main.Msg".
type Con struct {
	Name string
	Args []Type
}

// Alias keeps the name of a type alias while unifying as Real.
type Alias struct {
	Name string
	Args []Type
	Real Type
}

type Fun struct {
	Param  Type
	Result Type
}

// Tuple with no elements is the unit type.
type Tuple struct {
	Elems []Type
}

type Field struct {
	Name string
	Type Type
}

// Record is a record type with fields sorted by name. A nil Ext marks a
// closed record; otherwise Ext is the row variable of `{ r | ... }`.
type Record struct {
	Fields []Field
	Ext    Type
}

func (*Var) isType()    {}
func (*Con) isType()    {}
func (*Alias) isType()  {}
func (*Fun) isType()    {}
func (*Tuple) isType()  {}
func (*Record) isType() {}

// Canonical names of the built-in types.
const (
	NameInt    = "Basics.Int"
	NameFloat  = "Basics.Float"
	NameBool   = "Basics.Bool"
	NameOrder  = "Basics.Order"
	NameChar   = "Char.Char"
	NameString = "String.String"
	NameList   = "List.List"
	NameMaybe  = "Maybe.Maybe"
)

var (
	Int    Type = &Con{Name: NameInt}
	Float  Type = &Con{Name: NameFloat}
	Bool   Type = &Con{Name: NameBool}
	Char   Type = &Con{Name: NameChar}
	String Type = &Con{Name: NameString}
	Unit   Type = &Tuple{}
)

// List returns List elem.
func List(elem Type) Type {
	return &Con{Name: NameList, Args: []Type{elem}}
}

// Func builds the curried function type params[0] -> ... -> result.
func Func(result Type, params ...Type) Type {
	t := result
	for i := len(params) - 1; i >= 0; i-- {
		t = &Fun{Param: params[i], Result: t}
	}
	return t
}

// Prune follows variable links until it reaches an unbound variable or a
// non-variable type.
func Prune(t Type) Type {
	for {
		v, ok := t.(*Var)
		if !ok || v.link == nil {
			return t
		}
		t = v.link
	}
}

// Unalias strips alias wrappers.
func Unalias(t Type) Type {
	t = Prune(t)
	for {
		a, ok := t.(*Alias)
		if !ok {
			return t
		}
		t = Prune(a.Real)
	}
}

// FlattenRecord merges chained row extensions into one record.
func FlattenRecord(r *Record) *Record {
	fields := append([]Field(nil), r.Fields...)
	ext := r.Ext
	for ext != nil {
		next, ok := Unalias(ext).(*Record)
		if !ok {
			ext = Prune(ext)
			break
		}
		fields = append(fields, next.Fields...)
		ext = next.Ext
	}
	sortFields(fields)
	return &Record{Fields: fields, Ext: ext}
}

func sortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
}

// Params splits a function type into its parameters and final result.
func Params(t Type) ([]Type, Type) {
	var params []Type
	for {
		f, ok := Unalias(t).(*Fun)
		if !ok {
			return params, t
		}
		params = append(params, f.Param)
		t = f.Result
	}
}

// Resolve returns a copy of t with every bound variable replaced by its
// binding. Free variables are kept.
func Resolve(t Type) Type {
	switch t := Prune(t).(type) {
	case *Con:
		return &Con{Name: t.Name, Args: resolveAll(t.Args)}
	case *Alias:
		return &Alias{Name: t.Name, Args: resolveAll(t.Args), Real: Resolve(t.Real)}
	case *Fun:
		return &Fun{Param: Resolve(t.Param), Result: Resolve(t.Result)}
	case *Tuple:
		return &Tuple{Elems: resolveAll(t.Elems)}
	case *Record:
		flat := FlattenRecord(t)
		out := &Record{}
		for _, f := range flat.Fields {
			out.Fields = append(out.Fields, Field{Name: f.Name, Type: Resolve(f.Type)})
		}
		if flat.Ext != nil {
			out.Ext = Resolve(flat.Ext)
		}
		return out
	default:
		return t
	}
}

func resolveAll(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Resolve(t)
	}
	return out
}

// FreeVars lists the unbound variables of t in order of first appearance.
func FreeVars(t Type) []*Var {
	var out []*Var
	seen := map[*Var]bool{}
	var walk func(Type)
	walk = func(t Type) {
		switch t := Prune(t).(type) {
		case *Var:
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		case *Con:
			for _, a := range t.Args {
				walk(a)
			}
		case *Alias:
			for _, a := range t.Args {
				walk(a)
			}
			if len(t.Args) == 0 {
				walk(t.Real)
			}
		case *Fun:
			walk(t.Param)
			walk(t.Result)
		case *Tuple:
			for _, e := range t.Elems {
				walk(e)
			}
		case *Record:
			flat := FlattenRecord(t)
			for _, f := range flat.Fields {
				walk(f.Type)
			}
			if flat.Ext != nil {
				walk(flat.Ext)
			}
		}
	}
	walk(t)
	return out
}

// Scheme is a type with universally quantified variables.
type Scheme struct {
	Vars []*Var
	Type Type
}

// Mono wraps a type without quantifying anything.
func Mono(t Type) *Scheme {
	return &Scheme{Type: t}
}
