package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree, one node per line:
//
//	value_declaration 2:0-2:11
//	  name: lower_name "main" 2:0-2:4
func Dump(w io.Writer, t *Tree) error {
	return dumpNode(w, t, t.Root, FieldNone, 0)
}

func dumpNode(w io.Writer, t *Tree, n *Node, f Field, depth int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	if f != FieldNone {
		b.WriteString(f.String())
		b.WriteString(": ")
	}
	b.WriteString(n.Kind.String())
	if n.Text != "" {
		fmt.Fprintf(&b, " %q", n.Text)
	}
	r := t.Range(n)
	fmt.Fprintf(&b, " %d:%d-%d:%d\n", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := dumpNode(w, t, c, n.FieldOf(c), depth+1); err != nil {
			return err
		}
	}
	return nil
}
