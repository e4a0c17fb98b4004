package syntax

// PatternBinders returns the nodes that introduce names inside a pattern.
func PatternBinders(p *Node) []*Node {
	var out []*Node
	Inspect(p, func(n *Node) bool {
		switch n.Kind {
		case KindVarPattern:
			out = append(out, n)
		case KindLowerName:
			if n.Parent != nil && (n.Parent.Kind == KindRecordPattern || n.Parent.Kind == KindAliasPattern) {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// VisibleLocals returns the local bindings in scope at n, keyed by name:
// parameters, lambda arguments, case branch variables and let bindings.
// Inner bindings shadow outer ones. Top-level names are not included.
func VisibleLocals(n *Node) map[string]*Node {
	out := map[string]*Node{}
	add := func(name string, binder *Node) {
		if _, ok := out[name]; !ok && name != "" {
			out[name] = binder
		}
	}
	child := n
	for p := n.Parent; p != nil; child, p = p, p.Parent {
		switch p.Kind {
		case KindValueDecl, KindLambda:
			if p.FieldOf(child) != FieldBody {
				continue
			}
			for _, param := range Params(p) {
				for _, b := range PatternBinders(param) {
					add(b.Text, b)
				}
			}
		case KindCaseBranch:
			if p.FieldOf(child) != FieldBody {
				continue
			}
			for _, b := range PatternBinders(p.Field(FieldPattern)) {
				add(b.Text, b)
			}
		case KindLet:
			for _, binding := range p.ChildrenOf(KindValueDecl) {
				if name := binding.Field(FieldName); name != nil {
					add(name.Text, name)
					continue
				}
				for _, b := range PatternBinders(binding.Field(FieldPattern)) {
					add(b.Text, b)
				}
			}
		}
	}
	return out
}
