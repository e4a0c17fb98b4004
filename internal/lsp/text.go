package lsp

import "elmls/internal/source"

// applyChanges applies incremental edits in order; a change without a
// range replaces the whole text.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		sp := source.NewVirtualFile("", text).Span(*change.Range)
		text = text[:sp.Start] + change.Text + text[sp.End:]
	}
	return text
}
