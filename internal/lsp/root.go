package lsp

import (
	"path/filepath"

	"elmls/internal/analysis"
	"elmls/internal/config"
	"elmls/internal/source"
	"elmls/internal/trace"
)

func rootFromParams(params initializeParams) string {
	root := ""
	if params.RootURI != "" {
		root = source.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = source.URIToPath(params.WorkspaceFolders[0].URI)
	}
	return canonicalPath(root)
}

// loadWorkspace reads the project configuration found from root and loads
// every source directory it names. A broken configuration file is reported
// and replaced by defaults.
func (s *Server) loadWorkspace(root string) {
	ctx := s.baseCtx
	cfg, err := config.Discover(s.fs, root)
	if err != nil {
		trace.Errorf(s.tracer, "config", "%v", err)
		cfg = config.Default(root)
	}

	s.mu.Lock()
	if cfg.Path != "" {
		s.options = analysis.Options{Max: cfg.Diagnostics.Max, Disabled: cfg.Diagnostics.Disabled}
	}
	opts := s.options
	s.mu.Unlock()
	s.forest.SetOptions(ctx, opts)

	n, err := s.forest.Load(ctx, cfg.SourceRoots()...)
	if err != nil {
		trace.Errorf(s.tracer, "workspace", "load %s: %v", root, err)
		return
	}
	trace.Logf(s.tracer, trace.ScopeServer, "workspace", "root=%s config=%q files=%d", root, cfg.Path, n)
}

// canonicalURI maps file URIs onto the form the forest keys documents by.
// Other schemes pass through.
func canonicalURI(uri string) string {
	path := source.URIToPath(uri)
	if path == "" {
		return uri
	}
	return source.PathToURI(canonicalPath(path))
}

func canonicalPath(path string) string {
	if path == "" {
		return ""
	}
	candidate := filepath.FromSlash(path)
	if abs, err := filepath.Abs(candidate); err == nil {
		candidate = abs
	}
	return filepath.Clean(candidate)
}
