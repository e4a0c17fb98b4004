package codeaction

import (
	"elmls/internal/diag"
	"elmls/internal/fix"
)

// Kind classifies a code action the way LSP clients filter them.
type Kind string

const (
	KindQuickFix        Kind = "quickfix"
	KindRefactor        Kind = "refactor"
	KindRefactorRewrite Kind = "refactor.rewrite"
	KindSourceFixAll    Kind = "source.fixAll"
)

// CommandMoveDeclaration moves a top-level declaration into another module.
// Arguments: the source document URI, the declaration name and the
// destination module name.
const CommandMoveDeclaration = "elmls.moveDeclaration"

// Command defers part of an action to workspace/executeCommand.
type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// CodeAction is one entry of a textDocument/codeAction response.
type CodeAction struct {
	Title       string             `json:"title"`
	Kind        Kind               `json:"kind,omitempty"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics,omitempty"`
	IsPreferred bool               `json:"isPreferred,omitempty"`
	Edit        *fix.WorkspaceEdit `json:"edit,omitempty"`
	Command     *Command           `json:"command,omitempty"`

	// ID names the fix for `elmls fix --id`; it never goes on the wire.
	ID string `json:"-"`
}

// NewQuickFix builds a single-document quick fix.
func NewQuickFix(title, uri string, edits ...fix.TextEdit) CodeAction {
	return newEditAction(title, KindQuickFix, uri, edits)
}

// NewRefactor builds a single-document rewrite.
func NewRefactor(title, uri string, edits ...fix.TextEdit) CodeAction {
	return newEditAction(title, KindRefactorRewrite, uri, edits)
}

func newEditAction(title string, kind Kind, uri string, edits []fix.TextEdit) CodeAction {
	edit := fix.NewWorkspaceEdit(uri, edits...)
	return CodeAction{Title: title, Kind: kind, Edit: &edit}
}

// IsFixAll reports whether the action aggregates every occurrence of a code.
func (a CodeAction) IsFixAll() bool {
	return a.Kind == KindSourceFixAll
}

// HasEdit reports whether the action carries at least one text edit.
func (a CodeAction) HasEdit() bool {
	return a.Edit != nil && !a.Edit.Empty()
}

// Change converts the action for the apply engine. Command-only actions
// convert to an empty change, which the engine skips.
func (a CodeAction) Change() fix.Change {
	ch := fix.Change{
		ID:        a.ID,
		Title:     a.Title,
		Preferred: a.IsPreferred,
		FixAll:    a.IsFixAll(),
	}
	if a.Edit != nil {
		ch.Edit = *a.Edit
	}
	return ch
}

// Changes converts a list of actions.
func Changes(actions []CodeAction) []fix.Change {
	out := make([]fix.Change, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Change())
	}
	return out
}
