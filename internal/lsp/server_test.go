package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/goleak"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/source"
	"elmls/internal/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	utilURI = "file:///ws/src/Util.elm"
	mainURI = "file:///ws/src/Main.elm"
)

const utilText = `module Util exposing (double)


double : Int -> Int
double n =
    n * 2
`

const mainText = `module Main exposing (main)

import Util exposing (double)


main : Int
main =
    double 21
`

const unusedImportText = `module Main exposing (main)

import Util


main : Int
main =
    1
`

func workspaceFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/ws/elmls.toml":    "[project]\nsource_dirs = [\"src\"]\n",
		"/ws/src/Util.elm":  utilText,
		"/ws/src/Main.elm":  mainText,
		"/ws/docs/Skip.elm": "module Skip exposing (..)\n",
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return fs
}

func newTestServer(t *testing.T, opts ServerOptions) (*Server, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Debounce = time.Hour
	if opts.Fs == nil {
		opts.Fs = workspaceFs(t)
	}
	server := NewServer(bytes.NewReader(nil), &out, opts)
	t.Cleanup(server.stop)
	return server, &out
}

func request(t *testing.T, id int, method string, params any) *rpcMessage {
	t.Helper()
	msg := &rpcMessage{JSONRPC: "2.0", Method: method}
	if id > 0 {
		msg.ID = mustJSON(t, id)
	}
	if params != nil {
		msg.Params = mustJSON(t, params)
	}
	return msg
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

// drain decodes everything the server wrote so far and resets the buffer.
func drain(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	out.Reset()
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func flush(s *Server) {
	s.runDiagnostics(atomic.LoadUint64(&s.latestSeq))
}

func initialize(t *testing.T, s *Server, out *bytes.Buffer) {
	t.Helper()
	if err := s.handleInitialize(request(t, 1, "initialize", initializeParams{RootURI: "file:///ws"})); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	drain(t, out)
}

func openDoc(t *testing.T, s *Server, uri string, version int, text string) {
	t.Helper()
	params := didOpenTextDocumentParams{TextDocument: textDocumentItem{URI: uri, LanguageID: "elm", Version: version, Text: text}}
	if err := s.handleDidOpen(request(t, 0, "textDocument/didOpen", params)); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
}

func publishes(t *testing.T, msgs []rpcMessage) map[string]publishDiagnosticsParams {
	t.Helper()
	out := map[string]publishDiagnosticsParams{}
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode publish: %v", err)
		}
		out[params.URI] = params
	}
	return out
}

func codes(ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code.String())
	}
	return out
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func TestInitializeLoadsWorkspace(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	if err := s.handleInitialize(request(t, 1, "initialize", initializeParams{RootURI: "file:///ws"})); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	msgs := drain(t, out)
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d", len(msgs))
	}
	var result initializeResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ServerInfo.Name != "elmls" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	caps := result.Capabilities
	if caps.TextDocumentSync.Change != 2 {
		t.Errorf("expected incremental sync, got %d", caps.TextDocumentSync.Change)
	}
	if caps.CodeActionProvider == nil || !contains(caps.CodeActionProvider.CodeActionKinds, "source.fixAll") {
		t.Errorf("code action kinds missing: %+v", caps.CodeActionProvider)
	}
	if caps.ExecuteCommandProvider == nil || !contains(caps.ExecuteCommandProvider.Commands, "elmls.moveDeclaration") {
		t.Errorf("commands missing: %+v", caps.ExecuteCommandProvider)
	}

	docs := s.Forest().Documents()
	if len(docs) != 2 {
		t.Fatalf("expected the two source_dirs documents, got %d", len(docs))
	}
	if docs[0].URI != mainURI || docs[1].URI != utilURI {
		t.Errorf("unexpected documents %s, %s", docs[0].URI, docs[1].URI)
	}
}

func TestInitializeProjectConfigDisablesCodes(t *testing.T) {
	fs := workspaceFs(t)
	if err := afero.WriteFile(fs, "/ws/elmls.toml", []byte("[project]\nsource_dirs = [\"src\"]\n\n[diagnostics]\ndisabled = [\"unused_import\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, out := newTestServer(t, ServerOptions{Fs: fs})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, unusedImportText)
	flush(s)

	got := publishes(t, drain(t, out))[mainURI]
	if contains(codes(got.Diagnostics), diag.CodeUnusedImport) {
		t.Errorf("unused_import should be disabled, got %v", codes(got.Diagnostics))
	}
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)

	openDoc(t, s, mainURI, 3, unusedImportText)
	if msgs := drain(t, out); len(msgs) != 0 {
		t.Fatalf("diagnostics must wait for the debounce, got %d messages", len(msgs))
	}
	flush(s)

	all := publishes(t, drain(t, out))
	if len(all) != 1 {
		t.Fatalf("expected diagnostics for the open document only, got %d", len(all))
	}
	got, ok := all[mainURI]
	if !ok {
		t.Fatalf("no diagnostics for %s", mainURI)
	}
	if got.Version == nil || *got.Version != 3 {
		t.Errorf("expected version 3, got %v", got.Version)
	}
	if !contains(codes(got.Diagnostics), diag.CodeUnusedImport) {
		t.Errorf("expected unused_import, got %v", codes(got.Diagnostics))
	}
}

func TestDidChangeIncremental(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, mainText)
	flush(s)
	if got := publishes(t, drain(t, out))[mainURI]; len(got.Diagnostics) != 0 {
		t.Fatalf("expected a clean document, got %v", codes(got.Diagnostics))
	}

	change := didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: mainURI, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &source.Range{
				Start: source.Position{Line: 7, Character: 11},
				End:   source.Position{Line: 7, Character: 13},
			},
			Text: `"x"`,
		}},
	}
	if err := s.handleDidChange(request(t, 0, "textDocument/didChange", change)); err != nil {
		t.Fatalf("didChange: %v", err)
	}
	flush(s)

	got := publishes(t, drain(t, out))[mainURI]
	if got.Version == nil || *got.Version != 2 {
		t.Errorf("expected version 2, got %v", got.Version)
	}
	if !contains(codes(got.Diagnostics), diag.CodeTypeMismatch) {
		t.Errorf("expected type_mismatch, got %v", codes(got.Diagnostics))
	}
}

func TestDidCloseClearsAndRevertsToDisk(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, unusedImportText)
	flush(s)
	drain(t, out)

	params := didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: mainURI}}
	if err := s.handleDidClose(request(t, 0, "textDocument/didClose", params)); err != nil {
		t.Fatalf("didClose: %v", err)
	}
	cleared := publishes(t, drain(t, out))[mainURI]
	if cleared.URI != mainURI || len(cleared.Diagnostics) != 0 {
		t.Fatalf("expected an empty publish for %s, got %+v", mainURI, cleared)
	}

	flush(s)
	doc, err := s.Forest().Document(mainURI)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Open || doc.Text() != mainText {
		t.Errorf("expected disk content after close, got open=%v %q", doc.Open, doc.Text())
	}
}

type wireAction struct {
	Title   string            `json:"title"`
	Kind    string            `json:"kind"`
	Edit    *json.RawMessage  `json:"edit"`
	Diags   []diag.Diagnostic `json:"diagnostics"`
	Command *wireCommand      `json:"command"`
}

type wireCommand struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments"`
}

func codeActions(t *testing.T, s *Server, out *bytes.Buffer, params codeActionParams) []wireAction {
	t.Helper()
	if err := s.handleCodeAction(request(t, 7, "textDocument/codeAction", params)); err != nil {
		t.Fatalf("codeAction: %v", err)
	}
	for _, msg := range drain(t, out) {
		if string(msg.ID) != "7" {
			continue
		}
		var actions []wireAction
		if err := json.Unmarshal(msg.Result, &actions); err != nil {
			t.Fatalf("decode actions: %v", err)
		}
		return actions
	}
	t.Fatal("no codeAction response")
	return nil
}

func TestCodeActionForPublishedDiagnostic(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, unusedImportText)
	flush(s)
	published := publishes(t, drain(t, out))[mainURI].Diagnostics
	if len(published) == 0 {
		t.Fatal("expected diagnostics")
	}

	var unused diag.Diagnostic
	for _, d := range published {
		if d.Code.String() == diag.CodeUnusedImport {
			unused = d
		}
	}
	params := codeActionParams{
		TextDocument: textDocumentIdentifier{URI: mainURI},
		Range:        unused.Range,
		Context:      codeActionContext{Diagnostics: []diag.Diagnostic{unused}},
	}
	actions := codeActions(t, s, out, params)
	var titles []string
	for _, a := range actions {
		titles = append(titles, a.Title)
	}
	if !contains(titles, "Remove unused import `Util`") {
		t.Fatalf("expected the remove import fix, got %v", titles)
	}

	params.Context.Only = []string{"refactor"}
	for _, a := range codeActions(t, s, out, params) {
		if !strings.HasPrefix(a.Kind, "refactor") {
			t.Errorf("only=refactor returned %q (%s)", a.Title, a.Kind)
		}
	}
}

func TestCodeActionUnknownDocument(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	if err := s.handleCodeAction(request(t, 2, "textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: "file:///elsewhere/X.elm"},
	})); err != nil {
		t.Fatalf("codeAction: %v", err)
	}
	msgs := drain(t, out)
	if len(msgs) != 1 || string(msgs[0].Result) != "[]" {
		t.Fatalf("expected an empty array, got %+v", msgs)
	}
}

func TestFilterKinds(t *testing.T) {
	tests := []struct {
		kind string
		only []string
		keep bool
	}{
		{kind: "quickfix", only: nil, keep: true},
		{kind: "quickfix", only: []string{"quickfix"}, keep: true},
		{kind: "refactor.rewrite", only: []string{"refactor"}, keep: true},
		{kind: "refactor", only: []string{"refactor.rewrite"}, keep: false},
		{kind: "source.fixAll", only: []string{"source"}, keep: true},
		{kind: "sourcery", only: []string{"source"}, keep: false},
	}
	for _, tt := range tests {
		actions := filterKinds(codeActionsOfKind(tt.kind), tt.only)
		if got := len(actions) == 1; got != tt.keep {
			t.Errorf("kind %q only %v: keep=%v, want %v", tt.kind, tt.only, got, tt.keep)
		}
	}
}

func codeActionsOfKind(kind string) []codeaction.CodeAction {
	return []codeaction.CodeAction{{Title: kind, Kind: codeaction.Kind(kind)}}
}

const moveText = `module Main exposing (main, answer)

import Util


main : Int
main =
    Util.double answer


answer : Int
answer =
    21
`

func TestExecuteMoveDeclaration(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, moveText)

	params := executeCommandParams{
		Command:   "elmls.moveDeclaration",
		Arguments: []json.RawMessage{mustJSON(t, mainURI), mustJSON(t, "answer"), mustJSON(t, "Util")},
	}
	if err := s.handleExecuteCommand(request(t, 9, "workspace/executeCommand", params)); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs := drain(t, out)
	if len(msgs) != 2 {
		t.Fatalf("expected an applyEdit request and a response, got %d messages", len(msgs))
	}
	if msgs[0].Method != "workspace/applyEdit" || len(msgs[0].ID) == 0 {
		t.Fatalf("expected a workspace/applyEdit request, got %+v", msgs[0])
	}
	var apply struct {
		Label string `json:"label"`
		Edit  struct {
			Changes map[string]json.RawMessage `json:"changes"`
		} `json:"edit"`
	}
	if err := json.Unmarshal(msgs[0].Params, &apply); err != nil {
		t.Fatalf("decode applyEdit: %v", err)
	}
	if apply.Label != "Move answer to Util" {
		t.Errorf("label = %q", apply.Label)
	}
	if _, ok := apply.Edit.Changes[mainURI]; !ok {
		t.Errorf("missing source edits")
	}
	if _, ok := apply.Edit.Changes[utilURI]; !ok {
		t.Errorf("missing destination edits")
	}
	if string(msgs[1].ID) != "9" || string(msgs[1].Result) != "null" || msgs[1].Error != nil {
		t.Errorf("expected a null result, got %+v", msgs[1])
	}
}

func TestExecuteOfferedMoveCommand(t *testing.T) {
	s, out := newTestServer(t, ServerOptions{})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, moveText)
	flush(s)
	drain(t, out)

	name := source.Position{Line: 11, Character: 1}
	actions := codeActions(t, s, out, codeActionParams{
		TextDocument: textDocumentIdentifier{URI: mainURI},
		Range:        source.Range{Start: name, End: name},
	})
	var move *wireCommand
	for _, a := range actions {
		if a.Title == "Move Function to `Util`" {
			move = a.Command
		}
	}
	if move == nil {
		t.Fatalf("expected a move to Util, got %+v", actions)
	}

	params := executeCommandParams{Command: move.Command, Arguments: move.Arguments}
	if err := s.handleExecuteCommand(request(t, 12, "workspace/executeCommand", params)); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	msgs := drain(t, out)
	if len(msgs) != 2 || msgs[0].Method != "workspace/applyEdit" {
		t.Fatalf("expected an applyEdit request and a response, got %+v", msgs)
	}
	if string(msgs[1].ID) != "12" || msgs[1].Error != nil {
		t.Errorf("expected a successful response, got %+v", msgs[1])
	}
}

func TestExecuteCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []any
		cmd  string
	}{
		{name: "no destination", cmd: "elmls.moveDeclaration", args: []any{mainURI, "answer"}},
		{name: "unknown module", cmd: "elmls.moveDeclaration", args: []any{mainURI, "answer", "Nope"}},
		{name: "unknown declaration", cmd: "elmls.moveDeclaration", args: []any{mainURI, "missing", "Util"}},
		{name: "bad argument", cmd: "elmls.moveDeclaration", args: []any{mainURI, 3, "Util"}},
		{name: "unknown command", cmd: "elmls.other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestServer(t, ServerOptions{})
			initialize(t, s, out)
			openDoc(t, s, mainURI, 1, moveText)

			params := executeCommandParams{Command: tt.cmd}
			for _, a := range tt.args {
				params.Arguments = append(params.Arguments, mustJSON(t, a))
			}
			if err := s.handleExecuteCommand(request(t, 4, "workspace/executeCommand", params)); err != nil {
				t.Fatalf("executeCommand: %v", err)
			}
			msgs := drain(t, out)
			if len(msgs) != 1 || msgs[0].Error == nil {
				t.Fatalf("expected a single error response, got %+v", msgs)
			}
			if msgs[0].Error.Code != codeInvalidParams {
				t.Errorf("code = %d", msgs[0].Error.Code)
			}
		})
	}
}

func TestDidChangeConfiguration(t *testing.T) {
	var traceOut bytes.Buffer
	tracer := trace.NewStreamTracer(&traceOut, trace.LevelOff, trace.FormatText)
	s, out := newTestServer(t, ServerOptions{Tracer: tracer})
	initialize(t, s, out)
	openDoc(t, s, mainURI, 1, unusedImportText)
	flush(s)
	if got := publishes(t, drain(t, out))[mainURI]; !contains(codes(got.Diagnostics), diag.CodeUnusedImport) {
		t.Fatalf("expected unused_import before the change, got %v", codes(got.Diagnostics))
	}

	settings := json.RawMessage(`{"elmls":{"trace":"debug","diagnostics":{"disabled":["unused_import"]}}}`)
	if err := s.handleDidChangeConfiguration(request(t, 0, "workspace/didChangeConfiguration", didChangeConfigurationParams{Settings: settings})); err != nil {
		t.Fatalf("didChangeConfiguration: %v", err)
	}
	if tracer.Level() != trace.LevelDebug {
		t.Errorf("trace level = %s", tracer.Level())
	}
	flush(s)
	got := publishes(t, drain(t, out))[mainURI]
	if contains(codes(got.Diagnostics), diag.CodeUnusedImport) {
		t.Errorf("unused_import should be gone, got %v", codes(got.Diagnostics))
	}
	if traceOut.Len() == 0 {
		t.Error("expected trace output once enabled")
	}
}

func TestRunLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		methods []string
		want    error
	}{
		{name: "shutdown then exit", methods: []string{"initialize", "shutdown", "exit"}, want: ErrExit},
		{name: "exit without shutdown", methods: []string{"initialize", "exit"}, want: ErrExitWithoutShutdown},
		{name: "end of input", methods: []string{"initialize"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in, out bytes.Buffer
			for i, method := range tt.methods {
				msg := map[string]any{"jsonrpc": "2.0", "method": method}
				if method != "exit" {
					msg["id"] = i + 1
				}
				if err := writeMessage(&in, mustJSON(t, msg)); err != nil {
					t.Fatal(err)
				}
			}
			s := NewServer(&in, &out, ServerOptions{Fs: afero.NewMemMapFs()})
			err := s.Run(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunUnknownMethod(t *testing.T) {
	var in, out bytes.Buffer
	if err := writeMessage(&in, []byte(`{"jsonrpc":"2.0","id":5,"method":"textDocument/hover","params":{}}`)); err != nil {
		t.Fatal(err)
	}
	if err := writeMessage(&in, []byte(`{"jsonrpc":"2.0","method":"$/cancelRequest","params":{"id":5}}`)); err != nil {
		t.Fatal(err)
	}
	s := NewServer(&in, &out, ServerOptions{Fs: afero.NewMemMapFs()})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msgs := drain(t, &out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != codeMethodNotFound {
		t.Fatalf("expected one method-not-found error, got %+v", msgs)
	}
}

func TestRunDebouncedPublish(t *testing.T) {
	clientToServer, serverIn := io.Pipe()
	serverOut, serverToClient := io.Pipe()
	s := NewServer(clientToServer, serverToClient, ServerOptions{Debounce: 5 * time.Millisecond, Fs: workspaceFs(t)})

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
		serverToClient.Close()
	}()

	reader := bufio.NewReader(serverOut)
	send := func(msg string) {
		t.Helper()
		if err := writeMessage(serverIn, []byte(msg)); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	next := func() rpcMessage {
		t.Helper()
		payload, err := readMessage(reader)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	}

	send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///ws"}}`)
	if msg := next(); string(msg.ID) != "1" {
		t.Fatalf("expected initialize response, got %+v", msg)
	}
	open := didOpenTextDocumentParams{TextDocument: textDocumentItem{URI: mainURI, Version: 1, Text: unusedImportText}}
	send(string(mustJSON(t, map[string]any{"jsonrpc": "2.0", "method": "textDocument/didOpen", "params": open})))
	if msg := next(); msg.Method != "textDocument/publishDiagnostics" {
		t.Fatalf("expected publishDiagnostics, got %+v", msg)
	}

	send(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`)
	for {
		msg := next()
		if string(msg.ID) == "2" {
			break
		}
	}
	send(`{"jsonrpc":"2.0","method":"exit"}`)
	if err := <-done; !errors.Is(err, ErrExit) {
		t.Fatalf("Run = %v, want ErrExit", err)
	}
	serverIn.Close()
	serverOut.Close()
}
