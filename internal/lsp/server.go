package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"elmls/internal/analysis"
	"elmls/internal/codeaction"
	"elmls/internal/codeaction/providers"
	"elmls/internal/trace"
	"elmls/internal/version"
	"elmls/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	// Fs backs the workspace; defaults to the OS filesystem.
	Fs afero.Fs
	// Tracer receives server events. A tracer implementing
	// trace.LevelSetter follows the elmls.trace setting.
	Tracer trace.Tracer
	// Registry holds the quick-fix providers; defaults to the built-in set.
	Registry *codeaction.Registry
	// Analysis is the starting diagnostics configuration, refined by the
	// project file and the client settings.
	Analysis analysis.Options
}

// Server handles stdio JSON-RPC for the elmls language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	// editor state, pushed into the forest by sync
	openDocs  map[string]string
	versions  map[string]int
	pending   map[string]struct{}
	published map[string]struct{}
	syncMu    sync.Mutex

	fs         afero.Fs
	forest     *workspace.Forest
	dispatcher *codeaction.Dispatcher
	tracer     trace.Tracer
	options    analysis.Options

	workspaceRoot     string
	shutdownRequested bool
	stopped           bool
	debounce          time.Duration
	debounceTimer     *time.Timer
	timers            sync.WaitGroup
	analysisSeq       uint64
	latestSeq         uint64
	nextID            int64
	baseCtx           context.Context
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	reg := opts.Registry
	if reg == nil {
		reg = providers.NewRegistry()
	}
	forest := workspace.New(fsys, workspace.WithAnalysisOptions(opts.Analysis))
	dispatcher := codeaction.NewDispatcher(reg, forest,
		codeaction.WithSources(forest.Sources()...),
		codeaction.WithTracer(tracer),
	)
	return &Server{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		openDocs:   make(map[string]string),
		versions:   make(map[string]int),
		pending:    make(map[string]struct{}),
		published:  make(map[string]struct{}),
		fs:         fsys,
		forest:     forest,
		dispatcher: dispatcher,
		tracer:     tracer,
		options:    opts.Analysis,
		debounce:   debounce,
		baseCtx:    context.Background(),
	}
}

// Forest exposes the workspace the server analyses.
func (s *Server) Forest() *workspace.Forest {
	return s.forest
}

// Run serves LSP requests until exit or end of input. Pending diagnostics
// runs are finished before it returns.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = trace.WithTracer(ctx, s.tracer)
	defer s.stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			trace.Errorf(s.tracer, "lsp", "failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			// response to one of our requests
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) stop() {
	s.mu.Lock()
	s.stopped = true
	if s.debounceTimer != nil && s.debounceTimer.Stop() {
		s.timers.Done()
	}
	s.debounceTimer = nil
	s.mu.Unlock()
	s.timers.Wait()
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	span := trace.Begin(s.tracer, trace.ScopeRequest, msg.Method, 0)
	defer span.End("")

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := rootFromParams(params)
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	if root != "" {
		s.loadWorkspace(root)
	}
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{
					string(codeaction.KindQuickFix),
					string(codeaction.KindRefactor),
					string(codeaction.KindRefactorRewrite),
					string(codeaction.KindSourceFixAll),
				},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{codeaction.CommandMoveDeclaration},
			},
		},
		ServerInfo: serverInfo{
			Name:    "elmls",
			Version: version.Version,
		},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.pending[uri] = struct{}{}
	s.mu.Unlock()
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = applyChanges(s.openDocs[uri], params.ContentChanges)
	s.versions[uri] = params.TextDocument.Version
	s.pending[uri] = struct{}{}
	s.mu.Unlock()
	trace.Logf(s.tracer, trace.ScopeDocument, "didChange", "uri=%s version=%d", uri, params.TextDocument.Version)
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if params.Text != nil {
		s.openDocs[uri] = *params.Text
		s.pending[uri] = struct{}{}
	}
	s.mu.Unlock()
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	s.pending[uri] = struct{}{}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			trace.Errorf(s.tracer, "lsp", "failed to clear diagnostics: %v", err)
		}
	}
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

// sendRequest issues a server-to-client request. Replies are not awaited.
func (s *Server) sendRequest(method string, params any) error {
	id := atomic.AddInt64(&s.nextID, 1)
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) isLatestSeq(seq uint64) bool {
	if seq == 0 {
		return false
	}
	return seq == atomic.LoadUint64(&s.latestSeq)
}
