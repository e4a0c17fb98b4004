package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"elmls/internal/codeaction"
	"elmls/internal/fix"
	"elmls/internal/trace"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	ctx := s.baseCtx
	s.sync(ctx)

	actions := s.dispatcher.ComputeActions(ctx, codeaction.Request{
		URI:         uri,
		Range:       params.Range,
		Diagnostics: params.Context.Diagnostics,
	})
	actions = filterKinds(actions, params.Context.Only)
	trace.Logf(s.tracer, trace.ScopeRequest, "codeAction", "uri=%s actions=%d", uri, len(actions))
	return s.sendResponse(msg.ID, actions)
}

// filterKinds keeps the actions whose kind equals one of only or is
// nested under it ("refactor" admits "refactor.rewrite").
func filterKinds(actions []codeaction.CodeAction, only []string) []codeaction.CodeAction {
	if len(only) == 0 {
		return actions
	}
	out := make([]codeaction.CodeAction, 0, len(actions))
	for _, a := range actions {
		kind := string(a.Kind)
		for _, prefix := range only {
			if kind == prefix || strings.HasPrefix(kind, prefix+".") {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	switch params.Command {
	case codeaction.CommandMoveDeclaration:
		edit, label, err := s.moveDeclaration(params.Arguments)
		if err != nil {
			return s.sendError(msg.ID, codeInvalidParams, err.Error())
		}
		if err := s.sendRequest("workspace/applyEdit", applyWorkspaceEditParams{Label: label, Edit: edit}); err != nil {
			return err
		}
		return s.sendResponse(msg.ID, nil)
	default:
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
}

// moveDeclaration resolves [uri, name, destination module] against the
// current forest.
func (s *Server) moveDeclaration(args []json.RawMessage) (fix.WorkspaceEdit, string, error) {
	if len(args) < 3 {
		return fix.WorkspaceEdit{}, "", fmt.Errorf("%s expects a document, a name and a destination module", codeaction.CommandMoveDeclaration)
	}
	var uri, name, module string
	for i, dst := range []*string{&uri, &name, &module} {
		if err := json.Unmarshal(args[i], dst); err != nil {
			return fix.WorkspaceEdit{}, "", fmt.Errorf("argument %d: %w", i+1, err)
		}
	}
	uri = canonicalURI(uri)
	s.sync(s.baseCtx)

	src, ok := s.forest.Snapshot(uri)
	if !ok || src.Tree == nil {
		return fix.WorkspaceEdit{}, "", fmt.Errorf("unknown document %s", uri)
	}
	dst, ok := s.forest.SnapshotByModule(module)
	if !ok || dst.Tree == nil {
		return fix.WorkspaceEdit{}, "", fmt.Errorf("unknown module %s", module)
	}
	edit, ok := fix.MoveDeclaration(src.Tree, dst.Tree, name)
	if !ok {
		return fix.WorkspaceEdit{}, "", fmt.Errorf("cannot move %s to %s", name, module)
	}
	return edit, fmt.Sprintf("Move %s to %s", name, module), nil
}
