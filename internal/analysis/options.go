package analysis

import (
	"slices"
	"sync"

	"elmls/internal/diag"
)

// Options tune what a source reports.
type Options struct {
	// Disabled lists codes that are never reported.
	Disabled []string
	// Max caps the diagnostics per document; 0 means unbounded.
	Max int
}

func (o Options) enabled(code string) bool {
	return !slices.Contains(o.Disabled, code)
}

// settings guards Options that the server may change at runtime.
type settings struct {
	mu   sync.RWMutex
	opts Options
}

func (s *settings) get() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

func (s *settings) set(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// filterReporter drops disabled codes before they take room in the bag.
type filterReporter struct {
	next diag.Reporter
	opts Options
}

func (r filterReporter) Report(d diag.Diagnostic) {
	if code, ok := d.Code.Str(); ok && !r.opts.enabled(code) {
		return
	}
	r.next.Report(d)
}

func collect(bag *diag.Bag) []diag.Diagnostic {
	bag.Sort()
	bag.Dedup()
	return bag.Items()
}
