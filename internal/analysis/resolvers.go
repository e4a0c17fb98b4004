package analysis

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
)

// resolver builds the actions for one reported diagnostic on demand.
type resolver func() []codeaction.CodeAction

// resolverTable keeps the resolvers of the latest analysis of each document.
// The resolver id travels in Diagnostic.Data and comes back with the
// client's codeAction request.
type resolverTable struct {
	mu    sync.RWMutex
	byURI map[string]map[uuid.UUID]resolver
}

func newResolverTable() *resolverTable {
	return &resolverTable{byURI: map[string]map[uuid.UUID]resolver{}}
}

func (t *resolverTable) replace(uri string, resolvers map[uuid.UUID]resolver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(resolvers) == 0 {
		delete(t.byURI, uri)
		return
	}
	t.byURI[uri] = resolvers
}

func (t *resolverTable) forget(uri string) {
	t.replace(uri, nil)
}

// resolve runs the resolvers referenced by the request diagnostics. Data
// that is not one of our ids is ignored.
func (t *resolverTable) resolve(req codeaction.Request) []codeaction.CodeAction {
	t.mu.RLock()
	resolvers := t.byURI[req.URI]
	t.mu.RUnlock()

	out := []codeaction.CodeAction{}
	if len(resolvers) == 0 {
		return out
	}
	for _, d := range req.Diagnostics {
		id, ok := resolverID(d)
		if !ok {
			continue
		}
		r, ok := resolvers[id]
		if !ok {
			continue
		}
		for _, a := range r() {
			if len(a.Diagnostics) == 0 {
				a.Diagnostics = []diag.Diagnostic{d}
			}
			out = append(out, a)
		}
	}
	return out
}

func resolverID(d diag.Diagnostic) (uuid.UUID, bool) {
	if len(d.Data) == 0 {
		return uuid.UUID{}, false
	}
	var s string
	if err := json.Unmarshal(d.Data, &s); err != nil {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// attach registers r under a fresh id and stores the id in b's Data.
func attach(b *diag.ReportBuilder, resolvers map[uuid.UUID]resolver, r resolver) *diag.ReportBuilder {
	id := uuid.New()
	raw, err := json.Marshal(id.String())
	if err != nil {
		return b
	}
	resolvers[id] = r
	return b.WithData(raw)
}
