package lsp

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"elmls/internal/diag"
	"elmls/internal/trace"
)

func (s *Server) scheduleDiagnostics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	seq := atomic.AddUint64(&s.analysisSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.debounceTimer != nil && s.debounceTimer.Stop() {
		s.timers.Done()
	}
	s.timers.Add(1)
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		defer s.timers.Done()
		s.runDiagnostics(seq)
	})
}

func (s *Server) runDiagnostics(seq uint64) {
	if !s.isLatestSeq(seq) {
		return
	}
	ctx := s.baseCtx
	s.sync(ctx)
	if !s.isLatestSeq(seq) {
		trace.Logf(s.tracer, trace.ScopeServer, "diagnostics", "discard seq=%d superseded", seq)
		return
	}
	s.publishDiagnostics(seq)
}

// sync pushes editor buffers changed since the last call into the forest.
// Closed buffers hand their document back to the disk.
func (s *Server) sync(ctx context.Context) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	type update struct {
		uri     string
		text    string
		version int
		open    bool
	}
	s.mu.Lock()
	updates := make([]update, 0, len(s.pending))
	for uri := range s.pending {
		text, open := s.openDocs[uri]
		updates = append(updates, update{uri: uri, text: text, version: s.versions[uri], open: open})
	}
	s.pending = make(map[string]struct{})
	s.mu.Unlock()
	if len(updates) == 0 {
		return
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].uri < updates[j].uri })

	span := trace.Begin(s.tracer, trace.ScopeServer, "sync", trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	for _, u := range updates {
		if u.open {
			s.forest.Change(ctx, u.uri, u.version, u.text)
		} else {
			s.forest.Close(ctx, u.uri)
		}
	}
	span.WithCount("documents", len(updates)).End("")
}

// publishDiagnostics sends the forest diagnostics of every open document
// and clears documents that were published but are no longer open.
func (s *Server) publishDiagnostics(seq uint64) {
	s.mu.Lock()
	targets := make([]string, 0, len(s.openDocs))
	for uri := range s.openDocs {
		targets = append(targets, uri)
	}
	prev := s.published
	s.published = make(map[string]struct{}, len(targets))
	for _, uri := range targets {
		s.published[uri] = struct{}{}
	}
	s.mu.Unlock()
	sort.Strings(targets)

	for _, uri := range targets {
		doc, err := s.forest.Document(uri)
		if err != nil {
			trace.Errorf(s.tracer, "diagnostics", "%v", err)
			continue
		}
		version := doc.Version
		if err := s.sendPublish(uri, &version, doc.Diagnostics); err != nil {
			trace.Errorf(s.tracer, "diagnostics", "failed to publish: %v", err)
			continue
		}
		trace.Logf(s.tracer, trace.ScopeDocument, "publishDiagnostics", "seq=%d uri=%s count=%d", seq, uri, len(doc.Diagnostics))
	}
	for uri := range prev {
		if _, still := s.published[uri]; still {
			continue
		}
		if err := s.sendPublish(uri, nil, nil); err != nil {
			trace.Errorf(s.tracer, "diagnostics", "failed to clear: %v", err)
		}
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			trace.Errorf(s.tracer, "diagnostics", "failed to clear: %v", err)
		}
	}
}

func (s *Server) sendPublish(uri string, version *int, list []diag.Diagnostic) error {
	if list == nil {
		list = []diag.Diagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}
