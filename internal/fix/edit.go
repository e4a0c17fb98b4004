package fix

import (
	"errors"
	"fmt"
	"sort"

	"elmls/internal/source"
)

// ErrOverlap is returned when edits for one document overlap.
var ErrOverlap = errors.New("overlapping edits")

// TextEdit replaces the text covered by Range. An empty range inserts.
type TextEdit struct {
	Range   source.Range `json:"range"`
	NewText string       `json:"newText"`
}

// WorkspaceEdit maps document URIs to their edits, in application order.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes"`
}

// NewWorkspaceEdit starts an edit for a single document.
func NewWorkspaceEdit(uri string, edits ...TextEdit) WorkspaceEdit {
	var w WorkspaceEdit
	w.Add(uri, edits...)
	return w
}

// Add appends edits for uri.
func (w *WorkspaceEdit) Add(uri string, edits ...TextEdit) {
	if len(edits) == 0 {
		return
	}
	if w.Changes == nil {
		w.Changes = map[string][]TextEdit{}
	}
	w.Changes[uri] = append(w.Changes[uri], edits...)
}

// Merge appends every edit of other.
func (w *WorkspaceEdit) Merge(other WorkspaceEdit) {
	for _, uri := range other.URIs() {
		w.Add(uri, other.Changes[uri]...)
	}
}

// URIs returns the edited documents in lexical order.
func (w WorkspaceEdit) URIs() []string {
	out := make([]string, 0, len(w.Changes))
	for uri := range w.Changes {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Len counts the edits over all documents.
func (w WorkspaceEdit) Len() int {
	n := 0
	for _, edits := range w.Changes {
		n += len(edits)
	}
	return n
}

func (w WorkspaceEdit) Empty() bool {
	return w.Len() == 0
}

// Validate checks that no two edits of one document overlap. Two insertions
// at the same point do not conflict; they are applied in slice order.
func Validate(edits []TextEdit) error {
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if rangesConflict(edits[i].Range, edits[j].Range) {
				return fmt.Errorf("%w: %v and %v", ErrOverlap, edits[i].Range, edits[j].Range)
			}
		}
	}
	return nil
}

// ValidateWorkspace runs Validate for every document.
func ValidateWorkspace(w WorkspaceEdit) error {
	for _, uri := range w.URIs() {
		if err := Validate(w.Changes[uri]); err != nil {
			return fmt.Errorf("%s: %w", uri, err)
		}
	}
	return nil
}

// ApplyEdits applies a non-overlapping edit set to text. Ranges refer to the
// original text.
func ApplyEdits(text string, edits []TextEdit) (string, error) {
	if err := Validate(edits); err != nil {
		return text, err
	}
	file := source.NewVirtualFile("", text)
	resolved := resolveEdits(file, edits)
	// back to front; for equal starts the later edit goes first so that
	// insertions keep their slice order
	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].span.Start != resolved[j].span.Start {
			return resolved[i].span.Start > resolved[j].span.Start
		}
		return resolved[i].order > resolved[j].order
	})
	out := []byte(text)
	for _, e := range resolved {
		suffix := append([]byte(nil), out[e.span.End:]...)
		out = append(append(out[:e.span.Start], e.text...), suffix...)
	}
	return string(out), nil
}

type spanEdit struct {
	span  source.Span
	text  string
	order int
}

func resolveEdits(file *source.File, edits []TextEdit) []spanEdit {
	out := make([]spanEdit, 0, len(edits))
	for i, e := range edits {
		out = append(out, spanEdit{span: file.Span(e.Range), text: e.NewText, order: i})
	}
	return out
}

func rangesConflict(a, b source.Range) bool {
	aEmpty, bEmpty := a.Empty(), b.Empty()
	switch {
	case aEmpty && bEmpty:
		return false
	case aEmpty:
		return !a.Start.Before(b.Start) && a.Start.Before(b.End)
	case bEmpty:
		return !b.Start.Before(a.Start) && b.Start.Before(a.End)
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// spansConflict reports whether two edits' spans overlap.
// Spans are half-open intervals [Start, End). Two zero-length edits never
// conflict. A zero-length edit conflicts with a non-zero span if its
// position is within that span (Start <= pos < End).
func spansConflict(a, b source.Span) bool {
	if a.Empty() && b.Empty() {
		return false
	}
	if a.Empty() {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.Empty() {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

func editAt(file *source.File, sp source.Span, text string) TextEdit {
	return TextEdit{Range: file.Range(sp), NewText: text}
}

func insertAt(file *source.File, off uint32, text string) TextEdit {
	return editAt(file, source.Span{Start: off, End: off}, text)
}
