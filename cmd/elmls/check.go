package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"elmls/internal/analysis"
	"elmls/internal/cache"
	"elmls/internal/diag"
	"elmls/internal/diagfmt"
	"elmls/internal/source"
	"elmls/internal/trace"
	"elmls/internal/version"
	"elmls/internal/workspace"
)

var checkCmd = &cobra.Command{
	Use:          "check [flags] <file.elm|directory>",
	Short:        "Report diagnostics for an Elm file or directory",
	Long:         `Analyse the project containing the target and print the diagnostics of every file under it`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("paths", "auto", "path display (auto|absolute|relative|basename)")
	checkCmd.Flags().Int("context", 0, "source lines shown around each diagnostic")
	checkCmd.Flags().Bool("cache", false, "reuse diagnostics from the disk cache even if elmls.toml does not enable it")
	checkCmd.Flags().Bool("no-cache", false, "ignore the disk cache")
	checkCmd.Flags().Int("jobs", 0, "max parallel file reads (0=auto)")
}

// checkedFile is one target file with the content its cache key is derived
// from.
type checkedFile struct {
	uri     string
	content []byte
	hash    [sha256.Size]byte
	diags   []diag.Diagnostic
	hit     bool
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	pathsStr, err := cmd.Flags().GetString("paths")
	if err != nil {
		return fmt.Errorf("failed to get paths flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathsStr)
	if !ok {
		return fmt.Errorf("unknown path mode %q", pathsStr)
	}
	contextLines, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	forceCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if forceCache && noCache {
		return fmt.Errorf("--cache and --no-cache are mutually exclusive")
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	p, err := discoverProject(cmd, args[0])
	if err != nil {
		return err
	}
	defer p.cleanup()
	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	timer, err := phaseTimer(cmd)
	if err != nil {
		return err
	}
	defer printTimings(cmd, timer)

	phase := timer.Begin("read")
	paths, err := workspace.ListFiles(p.fs, p.roots()...)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	files, err := readFiles(p.fs, paths, jobs)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	timer.End(phase, fmt.Sprintf("%d files", len(files)))
	deps := make(map[string][sha256.Size]byte, len(files))
	var targets []*checkedFile
	for i, path := range paths {
		deps[files[i].uri] = files[i].hash
		if within(p.target, path) {
			targets = append(targets, files[i])
		}
	}

	var dc *cache.DiskCache
	if (p.cfg.Cache.Enabled || forceCache) && !noCache {
		dir := p.cfg.Cache.Dir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(p.cfg.Root, dir)
		}
		if dc, err = cache.Open(p.fs, dir, "elmls"); err != nil {
			trace.Errorf(tracer, "cache", "%v", err)
			dc = nil
		}
	}
	salt := cacheSalt(p.options)

	phase = timer.Begin("cache")
	misses := 0
	for _, f := range targets {
		entry, ok, err := dc.Get(cache.KeyFor(f.hash, deps, salt))
		if err != nil {
			trace.Errorf(tracer, "cache", "%s: %v", f.uri, err)
		}
		if ok {
			f.diags, f.hit = entry.Diagnostics(), true
			continue
		}
		misses++
	}
	timer.End(phase, fmt.Sprintf("%d hits", len(targets)-misses))

	if misses > 0 {
		phase = timer.Begin("analyse")
		if err := p.load(ctx); err != nil {
			return err
		}
		for _, f := range targets {
			if f.hit {
				continue
			}
			doc, err := p.forest.Document(f.uri)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			f.diags = doc.Diagnostics
			if err := dc.Put(cache.KeyFor(f.hash, deps, salt), cache.NewEntry(f.uri, f.diags)); err != nil {
				trace.Errorf(tracer, "cache", "%s: %v", f.uri, err)
			}
		}
		timer.End(phase, fmt.Sprintf("%d documents", misses))
	}
	trace.Logf(tracer, trace.ScopeServer, "check", "files=%d analysed=%d", len(targets), misses)

	phase = timer.Begin("report")
	out := cmd.OutOrStdout()
	if format == "json" {
		grouped := make([]diagfmt.FileDiagnostics, 0, len(targets))
		for _, f := range targets {
			grouped = append(grouped, diagfmt.FileDiagnostics{URI: f.uri, Diagnostics: f.diags})
		}
		if err := diagfmt.JSON(out, grouped, diagfmt.JSONOpts{PathMode: pathMode, BaseDir: p.cfg.Root, Max: p.options.Max}); err != nil {
			return err
		}
	} else {
		colored, err := useColor(cmd)
		if err != nil {
			return err
		}
		opts := diagfmt.PrettyOpts{Color: colored, Context: contextLines, PathMode: pathMode, BaseDir: p.cfg.Root}
		if err := printPretty(out, targets, opts); err != nil {
			return err
		}
	}
	timer.End(phase, "")

	if n := countErrors(targets); n > 0 {
		return fmt.Errorf("check: %d error(s)", n)
	}
	return nil
}

func readFiles(fsys afero.Fs, paths []string, jobs int) ([]*checkedFile, error) {
	files := make([]*checkedFile, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			content, err := afero.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files[i] = &checkedFile{
				uri:     source.PathToURI(path),
				content: content,
				hash:    sha256.Sum256(content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// cacheSalt captures everything besides file contents that changes the
// diagnostics of a document.
func cacheSalt(opts analysis.Options) string {
	disabled := slices.Clone(opts.Disabled)
	slices.Sort(disabled)
	return strings.Join([]string{version.Version, strconv.Itoa(opts.Max), strings.Join(disabled, ",")}, "|")
}

func printPretty(w io.Writer, targets []*checkedFile, opts diagfmt.PrettyOpts) error {
	var all []diag.Diagnostic
	for _, f := range targets {
		if len(f.diags) == 0 {
			continue
		}
		content, flags := source.Normalize(f.content)
		file := source.NewFile(f.uri, content, flags)
		if err := diagfmt.Pretty(w, file, f.diags, opts); err != nil {
			return err
		}
		all = append(all, f.diags...)
	}
	return diagfmt.Summary(w, all, opts)
}

func countErrors(targets []*checkedFile) int {
	n := 0
	for _, f := range targets {
		for _, d := range f.diags {
			if d.Severity == diag.SevError {
				n++
			}
		}
	}
	return n
}
