package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"elmls/internal/fix"
	"elmls/internal/source"
)

type editPreview struct {
	before []string
	after  []string
}

// buildEditPreview renders the whole lines touched by edit before and
// after applying it.
func buildEditPreview(file *source.File, edit fix.TextEdit) (editPreview, error) {
	if file == nil {
		return editPreview{}, fmt.Errorf("nil file")
	}
	span := file.Span(edit.Range)
	startLine := file.LineOf(span.Start)
	endLine := max(file.LineOf(span.End), startLine)

	blockStart := file.LineStart(startLine)
	blockEnd := file.LineEnd(endLine)
	if blockEnd < file.Len() {
		blockEnd++
	}
	if span.Start < blockStart || span.End > blockEnd {
		return editPreview{}, fmt.Errorf("edit %v out of range for preview block", edit.Range)
	}

	original := file.Content[blockStart:blockEnd]
	relStart := int(span.Start - blockStart)
	relEnd := int(span.End - blockStart)

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return editPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

// PrettyEdits prints a titled before/after preview of edits to file.
func PrettyEdits(w io.Writer, file *source.File, title string, edits []fix.TextEdit, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	b.WriteString(p.path.Sprint(DisplayPath(file.URI, opts.PathMode, opts.BaseDir)))
	b.WriteString(": ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, e := range edits {
		pv, err := buildEditPreview(file, e)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s\n", p.gutter.Sprintf("@@ %d:%d @@", e.Range.Start.Line+1, e.Range.Start.Character+1))
		for _, line := range pv.before {
			b.WriteString(p.removed.Sprint("- " + line))
			b.WriteString("\n")
		}
		for _, line := range pv.after {
			b.WriteString(p.added.Sprint("+ " + line))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
