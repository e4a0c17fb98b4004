package diagfmt

import (
	"path/filepath"
	"strings"

	"elmls/internal/source"
)

// DisplayPath formats the location of uri according to mode.
func DisplayPath(uri string, mode PathMode, baseDir string) string {
	path := source.URIToPath(uri)
	if path == "" {
		return uri
	}
	switch mode {
	case PathModeAbsolute:
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative:
		if rel, ok := relativeTo(baseDir, path); ok {
			return rel
		}
		return path
	default:
		if rel, ok := relativeTo(baseDir, path); ok && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return path
	}
}

func relativeTo(base, path string) (string, bool) {
	if base == "" {
		return "", false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
