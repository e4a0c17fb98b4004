package codeaction

import (
	"strings"

	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
)

// InferredAnnotationMarker precedes the suggested annotation in compiler
// messages that predate diagnostic codes.
const InferredAnnotationMarker = "I inferred the type annotation so you can copy it into your code:"

// legacyActions turns code-less compiler messages that carry an inferred
// annotation into quick fixes.
func legacyActions(req Request, snap *Snapshot) []CodeAction {
	var out []CodeAction
	for _, d := range req.Diagnostics {
		if d.Code.IsString() {
			continue
		}
		annotation, ok := inferredAnnotation(d.Message)
		if !ok {
			continue
		}
		decl := declarationAt(snap.Tree, d)
		if decl == nil {
			continue
		}
		edit, ok := fix.AnnotateWith(snap.Tree, decl, annotation)
		if !ok {
			continue
		}
		a := NewQuickFix("Add inferred annotation", req.URI, edit)
		a.ID = "inferred_annotation"
		a.IsPreferred = true
		a.Diagnostics = []diag.Diagnostic{d}
		out = append(out, a)
	}
	return out
}

// inferredAnnotation extracts the annotation after the marker. A wrapped
// annotation is joined back into one line.
func inferredAnnotation(msg string) (string, bool) {
	_, rest, ok := strings.Cut(msg, InferredAnnotationMarker)
	if !ok {
		return "", false
	}
	var parts []string
	for _, line := range strings.Split(strings.TrimLeft(rest, " \n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		parts = append(parts, line)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

func declarationAt(tree *syntax.Tree, d diag.Diagnostic) *syntax.Node {
	n := syntax.NamedNodeForPosition(tree, d.Range.Start)
	if n != nil && n.Kind == syntax.KindValueDecl {
		return n
	}
	return syntax.FindAncestor(n, syntax.KindValueDecl)
}
