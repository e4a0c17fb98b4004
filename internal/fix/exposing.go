package fix

import (
	"strings"

	"elmls/internal/source"
	"elmls/internal/syntax"
)

// ExposeValue adds name to the module exposing list. It returns false when
// the module already exposes everything or already lists name.
func ExposeValue(tree *syntax.Tree, name string) (TextEdit, bool) {
	list := explicitExposingList(tree)
	if list == nil || syntax.ExposedItem(tree, name) != nil {
		return TextEdit{}, false
	}
	return appendToList(tree.File, list, name)
}

// ExposeType adds a type to the exposing list. With withVariants the type is
// exposed as `Name(..)`; an already listed type gains `(..)` if it lacks it.
func ExposeType(tree *syntax.Tree, name string, withVariants bool) (TextEdit, bool) {
	list := explicitExposingList(tree)
	if list == nil {
		return TextEdit{}, false
	}
	if item := syntax.ExposedItem(tree, name); item != nil {
		if !withVariants || item.Kind != syntax.KindExposedType || item.FirstChild(syntax.KindDoubleDot) != nil {
			return TextEdit{}, false
		}
		return insertAt(tree.File, item.Span.End, "(..)"), true
	}
	text := name
	if withVariants {
		text += "(..)"
	}
	return appendToList(tree.File, list, text)
}

// Unexpose removes name from the exposing list. A module exposing `(..)`
// yields no edit. Removing the last item leaves `()`.
func Unexpose(tree *syntax.Tree, name string) (TextEdit, bool) {
	list := explicitExposingList(tree)
	if list == nil {
		return TextEdit{}, false
	}
	item := syntax.ExposedItem(tree, name)
	if item == nil {
		return TextEdit{}, false
	}
	items := exposedItems(list)
	if len(items) == 1 {
		inner, ok := listInterior(tree.File, list)
		if !ok {
			return TextEdit{}, false
		}
		return editAt(tree.File, inner, ""), true
	}
	idx := indexOf(items, item)
	if idx == 0 {
		return editAt(tree.File, source.Span{Start: item.Span.Start, End: items[1].Span.Start}, ""), true
	}
	return editAt(tree.File, source.Span{Start: items[idx-1].Span.End, End: item.Span.End}, ""), true
}

// UnexposeVariants turns `Name(..)` into `Name`.
func UnexposeVariants(tree *syntax.Tree, name string) (TextEdit, bool) {
	list := explicitExposingList(tree)
	if list == nil {
		return TextEdit{}, false
	}
	item := syntax.ExposedItem(tree, name)
	if item == nil || item.FirstChild(syntax.KindDoubleDot) == nil {
		return TextEdit{}, false
	}
	start := item.Span.Start + uint32(len(item.Text))
	return editAt(tree.File, source.Span{Start: start, End: item.Span.End}, ""), true
}

// explicitExposingList returns the module exposing list unless the module
// exposes everything.
func explicitExposingList(tree *syntax.Tree) *syntax.Node {
	if tree == nil || syntax.ExposingAll(tree) {
		return nil
	}
	return syntax.ExposingList(tree)
}

func exposedItems(list *syntax.Node) []*syntax.Node {
	return list.ChildrenOf(syntax.KindExposedValue, syntax.KindExposedType, syntax.KindExposedOperator)
}

// listInterior returns the span between the parentheses of list.
func listInterior(file *source.File, list *syntax.Node) (source.Span, bool) {
	text := file.Text(list.Span)
	if !strings.HasPrefix(text, "(") || !strings.HasSuffix(text, ")") || len(text) < 2 {
		return source.Span{}, false
	}
	return source.Span{Start: list.Span.Start + 1, End: list.Span.End - 1}, true
}

// appendToList inserts text after the last item, reusing the separator
// found between the last two items so that multi-line lists keep their
// layout.
func appendToList(file *source.File, list *syntax.Node, text string) (TextEdit, bool) {
	items := exposedItems(list)
	if len(items) == 0 {
		inner, ok := listInterior(file, list)
		if !ok {
			return TextEdit{}, false
		}
		return editAt(file, inner, text), true
	}
	last := items[len(items)-1]
	sep := ", "
	if len(items) >= 2 {
		prev := items[len(items)-2]
		sep = file.Text(source.Span{Start: prev.Span.End, End: last.Span.Start})
	}
	return insertAt(file, last.Span.End, sep+text), true
}

func indexOf(nodes []*syntax.Node, n *syntax.Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
