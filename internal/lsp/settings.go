package lsp

import (
	"encoding/json"
	"slices"

	"elmls/internal/trace"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if s.applySettings(params.Settings) {
		s.scheduleDiagnostics()
	}
	return nil
}

// applySettings merges the elmls section into the running configuration and
// reports whether diagnostics changed.
func (s *Server) applySettings(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		trace.Errorf(s.tracer, "settings", "invalid settings: %v", err)
		return false
	}
	if lvl := settings.Elmls.Trace; lvl != nil {
		s.setTraceLevel(*lvl)
	}
	d := settings.Elmls.Diagnostics
	if d == nil {
		return false
	}

	s.mu.Lock()
	opts := s.options
	if d.Max != nil && *d.Max >= 0 {
		opts.Max = *d.Max
	}
	if d.Disabled != nil {
		opts.Disabled = slices.Clone(d.Disabled)
	}
	changed := opts.Max != s.options.Max || !slices.Equal(opts.Disabled, s.options.Disabled)
	s.options = opts
	s.mu.Unlock()

	if changed {
		s.forest.SetOptions(s.baseCtx, opts)
	}
	return changed
}

func (s *Server) setTraceLevel(value string) {
	level, err := trace.ParseLevel(value)
	if err != nil {
		trace.Errorf(s.tracer, "settings", "%v", err)
		return
	}
	setter, ok := s.tracer.(trace.LevelSetter)
	if !ok {
		return
	}
	setter.SetLevel(level)
	trace.Logf(s.tracer, trace.ScopeServer, "settings", "trace level %s", level)
}
