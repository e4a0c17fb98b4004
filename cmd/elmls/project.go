package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"elmls/internal/analysis"
	"elmls/internal/codeaction"
	"elmls/internal/codeaction/providers"
	"elmls/internal/config"
	"elmls/internal/source"
	"elmls/internal/trace"
	"elmls/internal/workspace"
)

// project is a loaded workspace plus the target the command was given.
type project struct {
	fs      afero.Fs
	cfg     *config.Config
	forest  *workspace.Forest
	target  string // absolute file or directory
	options analysis.Options
	cleanup func()
}

// startDir is the directory configuration discovery starts from.
func startDir(target string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	return filepath.Dir(target)
}

// discoverProject reads the configuration for target, applies flag
// overrides and sets up tracing. Nothing is parsed yet.
func discoverProject(cmd *cobra.Command, target string) (*project, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}
	fsys := afero.NewOsFs()
	cfg, err := config.Discover(fsys, startDir(abs))
	if err != nil {
		return nil, err
	}

	opts := analysis.Options{Max: cfg.Diagnostics.Max, Disabled: cfg.Diagnostics.Disabled}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		opts.Max = maxDiagnostics
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	_, stopTracing, err := setupTracing(cmd, cfg)
	if err != nil {
		stopProfiling()
		return nil, err
	}
	cleanup := func() {
		stopTracing()
		stopProfiling()
	}
	return &project{fs: fsys, cfg: cfg, target: abs, options: opts, cleanup: cleanup}, nil
}

// loadProject discovers the configuration and loads the source directories.
// A target outside of them is loaded as well.
func loadProject(cmd *cobra.Command, target string) (*project, error) {
	p, err := discoverProject(cmd, target)
	if err != nil {
		return nil, err
	}
	if err := p.load(cmd.Context()); err != nil {
		p.cleanup()
		return nil, err
	}
	return p, nil
}

// roots are the configured source directories, plus the target's own
// directory when it lies outside of them.
func (p *project) roots() []string {
	roots := p.cfg.SourceRoots()
	if !p.covered(roots) {
		roots = append(roots, startDir(p.target))
	}
	return roots
}

func (p *project) load(ctx context.Context) error {
	p.forest = workspace.New(p.fs, workspace.WithAnalysisOptions(p.options))
	n, err := p.forest.Load(ctx, p.roots()...)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	trace.Logf(trace.FromContext(ctx), trace.ScopeServer, "project", "config=%q files=%d", p.cfg.Path, n)
	return nil
}

func (p *project) covered(roots []string) bool {
	for _, root := range roots {
		if within(root, p.target) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// targets returns the loaded documents under the target, sorted by URI.
func (p *project) targets() []*workspace.Document {
	var out []*workspace.Document
	for _, doc := range p.forest.Documents() {
		if doc.Path != "" && within(p.target, doc.Path) {
			out = append(out, doc)
		}
	}
	return out
}

// document returns the document for a file target.
func (p *project) document() (*workspace.Document, error) {
	return p.forest.Document(source.PathToURI(p.target))
}

func (p *project) dispatcher() *codeaction.Dispatcher {
	return codeaction.NewDispatcher(providers.NewRegistry(), p.forest,
		codeaction.WithSources(p.forest.Sources()...),
	)
}
