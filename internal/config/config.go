package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"elmls/internal/diag"
	"elmls/internal/trace"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = "elmls.toml"

// ErrNotFound is returned by Find when no configuration file exists up to
// the filesystem root.
var ErrNotFound = errors.New("no " + FileName + " found")

// Config is the decoded project configuration.
type Config struct {
	// Path is the configuration file, empty for defaults.
	Path string `toml:"-"`
	// Root is the directory holding the configuration file.
	Root string `toml:"-"`

	Project     ProjectConfig     `toml:"project"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Trace       TraceConfig       `toml:"trace"`
	Cache       CacheConfig       `toml:"cache"`
}

type ProjectConfig struct {
	// SourceDirs are scanned for .elm files, relative to Root.
	SourceDirs []string `toml:"source_dirs"`
}

type DiagnosticsConfig struct {
	Max      int      `toml:"max"`
	Disabled []string `toml:"disabled"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no file is found.
func Default(root string) *Config {
	return &Config{
		Root:        root,
		Project:     ProjectConfig{SourceDirs: []string{"."}},
		Diagnostics: DiagnosticsConfig{Max: 100},
		Trace:       TraceConfig{Level: "off"},
	}
}

// Find walks up from startDir to the nearest configuration file.
func Find(fs afero.Fs, startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := fs.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load decodes and validates the configuration file at path. Keys left
// unset keep their defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := Default(filepath.Dir(path))
	cfg.Path = path
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest configuration file, falling back to defaults
// rooted at startDir when there is none.
func Discover(fs afero.Fs, startDir string) (*Config, error) {
	path, err := Find(fs, startDir)
	if errors.Is(err, ErrNotFound) {
		root, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve start directory: %w", absErr)
		}
		return Default(root), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(fs, path)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Diagnostics.Max < 0 {
		return fmt.Errorf("[diagnostics].max must not be negative, got %d", c.Diagnostics.Max)
	}
	for _, code := range c.Diagnostics.Disabled {
		if _, ok := diag.Lookup(code); !ok {
			return fmt.Errorf("[diagnostics].disabled: unknown code %q", code)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	for _, dir := range c.Project.SourceDirs {
		if filepath.IsAbs(dir) {
			return fmt.Errorf("[project].source_dirs: %q must be relative", dir)
		}
	}
	return nil
}

// SourceRoots returns the absolute source directories.
func (c *Config) SourceRoots() []string {
	dirs := c.Project.SourceDirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, filepath.Join(c.Root, filepath.FromSlash(dir)))
	}
	return out
}

// TraceLevel returns the configured level; Validate guarantees it parses.
func (c *Config) TraceLevel() trace.Level {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.LevelOff
	}
	return level
}
