package types

import (
	"strconv"
	"strings"
)

// Namer decides how a canonical type name is spelled in a document.
type Namer interface {
	TypeName(canonical string) string
}

type canonicalNamer struct{}

func (canonicalNamer) TypeName(canonical string) string { return canonical }

// renderer prints types in canonical Elm syntax. Variables are named in
// order of appearance so the output is stable across runs.
type renderer struct {
	namer  Namer
	names  map[*Var]string
	counts map[string]int
}

const (
	precTop = iota
	precFunArg
	precAppArg
)

// RenderWith prints t using namer for type constructor names.
func RenderWith(t Type, namer Namer) string {
	if namer == nil {
		namer = canonicalNamer{}
	}
	r := &renderer{namer: namer, names: map[*Var]string{}, counts: map[string]int{}}
	return r.render(t, precTop)
}

func (r *renderer) render(t Type, prec int) string {
	switch t := Prune(t).(type) {
	case *Var:
		return r.varName(t)
	case *Con:
		return r.app(r.namer.TypeName(t.Name), t.Args, prec)
	case *Alias:
		return r.app(r.namer.TypeName(t.Name), t.Args, prec)
	case *Fun:
		params, result := funChain(t)
		parts := make([]string, 0, len(params)+1)
		for _, p := range params {
			parts = append(parts, r.render(p, precFunArg))
		}
		parts = append(parts, r.render(result, precTop))
		s := strings.Join(parts, " -> ")
		if prec >= precFunArg {
			return "(" + s + ")"
		}
		return s
	case *Tuple:
		if len(t.Elems) == 0 {
			return "()"
		}
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = r.render(e, precTop)
		}
		return "( " + strings.Join(parts, ", ") + " )"
	case *Record:
		flat := FlattenRecord(t)
		if len(flat.Fields) == 0 {
			if flat.Ext != nil {
				return r.render(flat.Ext, prec)
			}
			return "{}"
		}
		parts := make([]string, len(flat.Fields))
		for i, f := range flat.Fields {
			parts[i] = f.Name + " : " + r.render(f.Type, precTop)
		}
		body := strings.Join(parts, ", ")
		if flat.Ext != nil {
			return "{ " + r.render(flat.Ext, precTop) + " | " + body + " }"
		}
		return "{ " + body + " }"
	}
	return "?"
}

// funChain splits nested Fun nodes without looking through aliases, so a
// function-typed alias keeps its name.
func funChain(f *Fun) ([]Type, Type) {
	params := []Type{f.Param}
	t := Prune(f.Result)
	for {
		next, ok := t.(*Fun)
		if !ok {
			return params, t
		}
		params = append(params, next.Param)
		t = Prune(next.Result)
	}
}

func (r *renderer) app(name string, args []Type, prec int) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, r.render(a, precAppArg))
	}
	s := strings.Join(parts, " ")
	if prec >= precAppArg {
		return "(" + s + ")"
	}
	return s
}

func (r *renderer) varName(v *Var) string {
	if name, ok := r.names[v]; ok {
		return name
	}
	var name string
	if v.Constraint != "" {
		n := r.counts[v.Constraint]
		r.counts[v.Constraint] = n + 1
		name = v.Constraint
		if n > 0 {
			name += strconv.Itoa(n)
		}
	} else {
		n := r.counts[""]
		r.counts[""] = n + 1
		name = string(rune('a' + n%26))
		if n >= 26 {
			name += strconv.Itoa(n / 26)
		}
	}
	r.names[v] = name
	return name
}
