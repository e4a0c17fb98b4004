package fix

import (
	"strings"

	"elmls/internal/source"
	"elmls/internal/syntax"
)

// MoveDeclaration moves the top-level value name, with its annotation, from
// src to dst. The source loses the declaration and its exposing entry; the
// destination gains it at the end and exposes it. When src still refers to
// name, an import of the destination module is added or extended.
func MoveDeclaration(src, dst *syntax.Tree, name string) (WorkspaceEdit, bool) {
	if src == nil || dst == nil || src.File.URI == dst.File.URI || src.ModuleName() == dst.ModuleName() {
		return WorkspaceEdit{}, false
	}
	decl := syntax.FindTopLevel(src, name)
	if decl == nil || decl.Kind != syntax.KindValueDecl || declaresTopLevel(dst, name) {
		return WorkspaceEdit{}, false
	}
	block := decl.Span
	if ann := syntax.AnnotationFor(decl); ann != nil {
		block.Start = ann.Span.Start
	}
	text := src.File.Text(block)

	var srcEdits []TextEdit
	if e, ok := Unexpose(src, name); ok {
		srcEdits = append(srcEdits, e)
	}
	if stillReferenced(src, name, block) {
		if e, ok := importExposing(src, dst.ModuleName(), name); ok {
			srcEdits = append(srcEdits, e)
		}
	}
	srcEdits = append(srcEdits, editAt(src.File, removalSpan(src.File, block), ""))

	prefix := "\n\n\n"
	if content := dst.File.Content; len(content) == 0 {
		prefix = ""
	} else if strings.HasSuffix(string(content), "\n") {
		prefix = "\n\n"
	}
	dstEdits := []TextEdit{}
	if e, ok := ExposeValue(dst, name); ok {
		dstEdits = append(dstEdits, e)
	}
	dstEdits = append(dstEdits, insertAt(dst.File, dst.File.Len(), prefix+text+"\n"))

	var w WorkspaceEdit
	w.Add(src.File.URI, srcEdits...)
	w.Add(dst.File.URI, dstEdits...)
	return w, true
}

// removalSpan covers the lines of block plus the blank lines after it.
func removalSpan(file *source.File, block source.Span) source.Span {
	sp := wholeLines(file, block)
	for line := file.LineOf(sp.End); sp.End < file.Len() && strings.TrimSpace(file.Line(line)) == ""; line++ {
		next := file.LineEnd(line)
		if next < file.Len() {
			next++
		}
		sp.End = next
	}
	return sp
}

func stillReferenced(tree *syntax.Tree, name string, skip source.Span) bool {
	found := false
	syntax.Inspect(tree.Root, func(n *syntax.Node) bool {
		if found || skip.Encloses(n.Span) {
			return false
		}
		if n.Kind == syntax.KindValueRef && n.Text == name {
			if _, shadowed := syntax.VisibleLocals(n)[name]; !shadowed {
				found = true
			}
		}
		return true
	})
	return found
}

// importExposing makes name from module visible unqualified in tree: a new
// import is added after the existing ones, or an existing import is extended.
func importExposing(tree *syntax.Tree, module, name string) (TextEdit, bool) {
	if imp := syntax.FindImport(tree, module); imp != nil {
		list := imp.Field(syntax.FieldExposing)
		if list == nil {
			return insertAt(tree.File, imp.Span.End, " exposing ("+name+")"), true
		}
		if list.FirstChild(syntax.KindDoubleDot) != nil {
			return TextEdit{}, false
		}
		for _, item := range exposedItems(list) {
			if item.Text == name {
				return TextEdit{}, false
			}
		}
		return appendToList(tree.File, list, name)
	}

	line := "import " + module + " exposing (" + name + ")"
	anchor := tree.Root.FirstChild(syntax.KindModuleDecl)
	if imports := tree.Imports(); len(imports) > 0 {
		anchor = imports[len(imports)-1]
	}
	if anchor == nil {
		return insertAt(tree.File, 0, line+"\n"), true
	}
	at := tree.File.LineEnd(tree.File.LineOf(anchor.Span.End))
	if anchor.Kind == syntax.KindModuleDecl {
		return insertAt(tree.File, at, "\n\n"+line), true
	}
	return insertAt(tree.File, at, "\n"+line), true
}
