package types

import (
	"errors"
	"fmt"
)

var errMismatch = errors.New("type mismatch")

type mismatchError struct {
	expected Type
	found    Type
	detail   string
}

func (e *mismatchError) Error() string {
	if e.detail != "" {
		return errMismatch.Error() + ": " + e.detail
	}
	return errMismatch.Error()
}

func (e *mismatchError) Unwrap() error { return errMismatch }

func mismatch(a, b Type, format string, args ...any) error {
	return &mismatchError{expected: a, found: b, detail: fmt.Sprintf(format, args...)}
}

func (c *Checker) unify(a, b Type) error {
	a, b = Prune(a), Prune(b)
	if a == b {
		return nil
	}
	if al, ok := a.(*Alias); ok {
		return c.unify(al.Real, b)
	}
	if bl, ok := b.(*Alias); ok {
		return c.unify(a, bl.Real)
	}
	if v, ok := a.(*Var); ok {
		return c.bindVar(v, b)
	}
	if v, ok := b.(*Var); ok {
		return c.bindVar(v, a)
	}

	switch a := a.(type) {
	case *Con:
		b, ok := b.(*Con)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return mismatch(a, b, "")
		}
		for i := range a.Args {
			if err := c.unify(a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case *Fun:
		b, ok := b.(*Fun)
		if !ok {
			return mismatch(a, b, "")
		}
		if err := c.unify(a.Param, b.Param); err != nil {
			return err
		}
		return c.unify(a.Result, b.Result)
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return mismatch(a, b, "")
		}
		for i := range a.Elems {
			if err := c.unify(a.Elems[i], b.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case *Record:
		b, ok := b.(*Record)
		if !ok {
			return mismatch(a, b, "")
		}
		return c.unifyRecords(a, b)
	}
	return mismatch(a, b, "")
}

func (c *Checker) unifyRecords(a, b *Record) error {
	fa, fb := FlattenRecord(a), FlattenRecord(b)
	byName := map[string]Type{}
	for _, f := range fb.Fields {
		byName[f.Name] = f.Type
	}
	var onlyA, onlyB []Field
	inA := map[string]bool{}
	for _, f := range fa.Fields {
		inA[f.Name] = true
		if t, ok := byName[f.Name]; ok {
			if err := c.unify(f.Type, t); err != nil {
				return err
			}
			continue
		}
		onlyA = append(onlyA, f)
	}
	for _, f := range fb.Fields {
		if !inA[f.Name] {
			onlyB = append(onlyB, f)
		}
	}

	switch {
	case fa.Ext == nil && fb.Ext == nil:
		if len(onlyA) > 0 || len(onlyB) > 0 {
			return mismatch(a, b, "record fields differ")
		}
		return nil
	case fa.Ext == nil:
		if len(onlyB) > 0 {
			return mismatch(a, b, "missing field %s", onlyB[0].Name)
		}
		return c.unify(fb.Ext, &Record{Fields: onlyA})
	case fb.Ext == nil:
		if len(onlyA) > 0 {
			return mismatch(a, b, "missing field %s", onlyA[0].Name)
		}
		return c.unify(fa.Ext, &Record{Fields: onlyB})
	default:
		if len(onlyA) == 0 && len(onlyB) == 0 {
			return c.unify(fa.Ext, fb.Ext)
		}
		rest := c.fresh("")
		if err := c.unify(fa.Ext, &Record{Fields: onlyB, Ext: rest}); err != nil {
			return err
		}
		return c.unify(fb.Ext, &Record{Fields: onlyA, Ext: rest})
	}
}

func (c *Checker) bindVar(v *Var, t Type) error {
	if w, ok := t.(*Var); ok {
		merged, ok := mergeConstraints(v.Constraint, w.Constraint)
		if !ok {
			return mismatch(v, w, "%s is not %s", w.Constraint, v.Constraint)
		}
		w.Constraint = merged
		if v.level < w.level {
			w.level = v.level
		}
		v.link = w
		return nil
	}
	if occurs(v, t) {
		return mismatch(v, t, "infinite type")
	}
	if v.Constraint != "" && !c.satisfies(v.Constraint, t) {
		return mismatch(v, t, "expected %s", v.Constraint)
	}
	adjustLevels(t, v.level)
	v.link = t
	return nil
}

func occurs(v *Var, t Type) bool {
	for _, fv := range FreeVars(t) {
		if fv == v {
			return true
		}
	}
	return false
}

func adjustLevels(t Type, level int) {
	for _, fv := range FreeVars(t) {
		if fv.level > level {
			fv.level = level
		}
	}
}

func mergeConstraints(a, b string) (string, bool) {
	switch {
	case a == b || b == "":
		return a, true
	case a == "":
		return b, true
	}
	pair := a + "+" + b
	switch pair {
	case "number+comparable", "comparable+number":
		return "number", true
	case "comparable+appendable", "appendable+comparable",
		"compappend+comparable", "comparable+compappend",
		"compappend+appendable", "appendable+compappend":
		return "compappend", true
	}
	return "", false
}

// satisfies checks a type-class constraint against a concrete type and
// pushes the constraint into element variables where needed.
func (c *Checker) satisfies(class string, t Type) bool {
	t = Unalias(t)
	con, isCon := t.(*Con)
	switch class {
	case "number":
		return isCon && (con.Name == NameInt || con.Name == NameFloat)
	case "appendable":
		return isCon && (con.Name == NameString || con.Name == NameList)
	case "comparable", "compappend":
		if tup, ok := t.(*Tuple); ok && class == "comparable" {
			for _, e := range tup.Elems {
				if !c.constrain(e, "comparable") {
					return false
				}
			}
			return true
		}
		if !isCon {
			return false
		}
		switch con.Name {
		case NameString:
			return true
		case NameInt, NameFloat, NameChar:
			return class == "comparable"
		case NameList:
			return c.constrain(con.Args[0], "comparable")
		}
	}
	return false
}

func (c *Checker) constrain(t Type, class string) bool {
	if v, ok := Prune(t).(*Var); ok {
		merged, ok := mergeConstraints(v.Constraint, class)
		if ok {
			v.Constraint = merged
		}
		return ok
	}
	return c.satisfies(class, t)
}
