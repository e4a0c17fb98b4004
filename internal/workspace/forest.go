package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"elmls/internal/analysis"
	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/source"
	"elmls/internal/trace"
	"elmls/internal/types"
)

// Extension marks the files a Forest loads.
const Extension = ".elm"

// ErrNotLoaded is returned for operations on unknown documents.
var ErrNotLoaded = errors.New("document not loaded")

// Forest holds every loaded document of a workspace, open editor buffers
// taking precedence over disk content. It implements codeaction.Forest.
type Forest struct {
	mu      sync.RWMutex
	fs      afero.Fs
	docs    map[string]*Document
	modules map[string]string

	compiler *analysis.Compiler
	linter   *analysis.Linter
	jobs     int
}

var _ codeaction.Forest = (*Forest)(nil)

// Option configures a Forest.
type Option func(*Forest)

// WithAnalysisOptions sets the options of both diagnostics sources.
func WithAnalysisOptions(opts analysis.Options) Option {
	return func(f *Forest) {
		f.compiler.SetOptions(opts)
		f.linter.SetOptions(opts)
	}
}

// WithJobs bounds the number of files parsed at once.
func WithJobs(n int) Option {
	return func(f *Forest) {
		f.jobs = n
	}
}

func New(fsys afero.Fs, opts ...Option) *Forest {
	f := &Forest{
		fs:       fsys,
		docs:     map[string]*Document{},
		modules:  map[string]string{},
		compiler: analysis.NewCompiler(analysis.Options{}),
		linter:   analysis.NewLinter(analysis.Options{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.jobs <= 0 {
		f.jobs = runtime.GOMAXPROCS(0)
	}
	return f
}

// Fs returns the filesystem documents are read from.
func (f *Forest) Fs() afero.Fs {
	return f.fs
}

// Sources returns the diagnostics sources whose resolvers contribute code
// actions.
func (f *Forest) Sources() []codeaction.ActionSource {
	return []codeaction.ActionSource{f.compiler, f.linter}
}

// SetOptions changes what the diagnostics sources report and re-analyses
// every document.
func (f *Forest) SetOptions(ctx context.Context, opts analysis.Options) {
	f.compiler.SetOptions(opts)
	f.linter.SetOptions(opts)
	f.Recheck(ctx)
}

// ListFiles returns the sorted .elm files below roots. Missing roots are
// skipped.
func ListFiles(fsys afero.Fs, roots ...string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, root := range roots {
		err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				if path == root && errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			if info.IsDir() {
				if path != root && (strings.HasPrefix(info.Name(), ".") || info.Name() == "elm-stuff") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, Extension) && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load parses every .elm file below roots in parallel and analyses the
// workspace. Open documents keep their editor text.
func (f *Forest) Load(ctx context.Context, roots ...string) (int, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeServer, "workspace.load", trace.ParentSpan(ctx))
	files, err := ListFiles(f.fs, roots...)
	if err != nil {
		span.End("error")
		return 0, err
	}

	parsed := make([]*Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(f.jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := afero.ReadFile(f.fs, path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			parsed[i] = parseDocument(source.PathToURI(path), path, 0, content, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("error")
		return 0, err
	}

	f.mu.Lock()
	for _, doc := range parsed {
		if cur, ok := f.docs[doc.URI]; ok && cur.Open {
			continue
		}
		f.docs[doc.URI] = doc
	}
	f.mu.Unlock()

	f.Recheck(ctx)
	span.WithCount("files", len(files)).End("")
	return len(files), nil
}

// Open installs editor text for uri.
func (f *Forest) Open(ctx context.Context, uri string, version int, text string) *Document {
	return f.update(ctx, uri, version, text, true)
}

// Change replaces the text of uri. Unknown documents are opened.
func (f *Forest) Change(ctx context.Context, uri string, version int, text string) *Document {
	return f.update(ctx, uri, version, text, true)
}

func (f *Forest) update(ctx context.Context, uri string, version int, text string, open bool) *Document {
	doc := parseDocument(uri, source.URIToPath(uri), version, []byte(text), open)
	f.mu.Lock()
	f.docs[uri] = doc
	f.mu.Unlock()
	f.Recheck(ctx)
	return f.document(uri)
}

// Close hands uri back to the disk: the file is reloaded when it exists and
// dropped otherwise.
func (f *Forest) Close(ctx context.Context, uri string) {
	path := source.URIToPath(uri)
	var doc *Document
	if path != "" {
		if content, err := afero.ReadFile(f.fs, path); err == nil {
			doc = parseDocument(uri, path, 0, content, false)
		}
	}
	f.mu.Lock()
	if doc != nil {
		f.docs[uri] = doc
	} else {
		delete(f.docs, uri)
	}
	f.mu.Unlock()
	if doc == nil {
		f.compiler.Forget(uri)
		f.linter.Forget(uri)
	}
	f.Recheck(ctx)
}

// Recheck type checks every document against the current interfaces of
// the modules it imports, then recomputes diagnostics.
func (f *Forest) Recheck(ctx context.Context) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeRequest, "workspace.recheck", trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	f.mu.Lock()
	defer f.mu.Unlock()

	uris := make([]string, 0, len(f.docs))
	for uri := range f.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	modules := make(map[string]string, len(uris))
	for _, uri := range uris {
		name := f.docs[uri].Module()
		if _, taken := modules[name]; name != "" && !taken {
			modules[name] = uri
		}
	}

	r := &rechecker{docs: f.docs, modules: modules, checked: map[string]*types.Checker{}, active: map[string]bool{}}
	next := make(map[string]*Document, len(uris))
	for _, uri := range uris {
		doc := *f.docs[uri]
		doc.Checker = r.check(uri)
		doc.Diagnostics = f.analyze(ctx, &doc)
		next[uri] = &doc
	}
	f.docs = next
	f.modules = modules
	span.WithCount("documents", len(uris)).End("")
}

func (f *Forest) analyze(ctx context.Context, doc *Document) []diag.Diagnostic {
	out := f.compiler.Analyze(ctx, doc.URI, doc.Checker)
	out = append(out, f.linter.Analyze(ctx, doc.URI, doc.Tree)...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

// rechecker checks modules on demand so that a module is checked after
// the modules it imports. An import cycle resolves as an unknown module.
type rechecker struct {
	docs    map[string]*Document
	modules map[string]string
	checked map[string]*types.Checker
	active  map[string]bool
}

func (r *rechecker) check(uri string) *types.Checker {
	if c, ok := r.checked[uri]; ok {
		return c
	}
	r.active[uri] = true
	importer := types.Chain(types.ImporterFunc(r.importModule), types.Prelude())
	c := types.Check(r.docs[uri].Tree, importer)
	delete(r.active, uri)
	r.checked[uri] = c
	return c
}

func (r *rechecker) importModule(module string) (*types.Interface, bool) {
	if types.IsPreludeModule(module) {
		return nil, false
	}
	uri, ok := r.modules[module]
	if !ok || r.active[uri] {
		return nil, false
	}
	return r.check(uri).Interface(), true
}

// Snapshot implements codeaction.Forest.
func (f *Forest) Snapshot(uri string) (*codeaction.Snapshot, bool) {
	doc := f.document(uri)
	if doc == nil {
		return nil, false
	}
	return snapshotOf(doc), true
}

// SnapshotByModule implements codeaction.Forest.
func (f *Forest) SnapshotByModule(module string) (*codeaction.Snapshot, bool) {
	f.mu.RLock()
	uri, ok := f.modules[module]
	f.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f.Snapshot(uri)
}

// Modules returns the module names of the forest, sorted.
func (f *Forest) Modules() []string {
	f.mu.RLock()
	out := make([]string, 0, len(f.modules))
	for module := range f.modules {
		out = append(out, module)
	}
	f.mu.RUnlock()
	sort.Strings(out)
	return out
}

func snapshotOf(doc *Document) *codeaction.Snapshot {
	s := &codeaction.Snapshot{
		URI:         doc.URI,
		Version:     doc.Version,
		Tree:        doc.Tree,
		Diagnostics: doc.Diagnostics,
	}
	if doc.Checker != nil {
		s.Checker = doc.Checker
	}
	return s
}

// Document returns the state of uri.
func (f *Forest) Document(uri string) (*Document, error) {
	if doc := f.document(uri); doc != nil {
		return doc, nil
	}
	return nil, fmt.Errorf("%s: %w", uri, ErrNotLoaded)
}

func (f *Forest) document(uri string) *Document {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.docs[uri]
}

// Documents returns all documents ordered by URI.
func (f *Forest) Documents() []*Document {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Hashes returns the content hash of every document keyed by URI.
func (f *Forest) Hashes() map[string][32]byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string][32]byte, len(f.docs))
	for uri, doc := range f.docs {
		out[uri] = doc.Hash()
	}
	return out
}
