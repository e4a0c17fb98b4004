package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the Entry layout changes; older entries then read as misses.
const schemaVersion uint16 = 1

// Key identifies one cached analysis.
type Key [sha256.Size]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor derives a key from a document hash and the inputs that change its
// diagnostics: the hashes of the other workspace documents and the options.
func KeyFor(content [sha256.Size]byte, deps map[string][sha256.Size]byte, salt string) Key {
	h := sha256.New()
	h.Write(content[:])
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := deps[name]
		h.Write([]byte(name))
		h.Write(d[:])
	}
	h.Write([]byte(salt))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// DiskCache stores the diagnostics of analysed documents by Key.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// Open returns a cache rooted at dir, creating it when needed. An empty dir
// selects $XDG_CACHE_HOME/<app> or ~/.cache/<app>.
func Open(fs afero.Fs, dir, app string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("cache dir: %w", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{fs: fs, dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "diags", key.String()+".mp")
}

// Put writes an entry through a temp file and a rename.
func (c *DiskCache) Put(key Key, entry *Entry) (err error) {
	if c == nil || entry == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := c.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(c.fs, filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = c.fs.Remove(tmp)
		}
	}()

	entry.Schema = schemaVersion
	if err = msgpack.NewEncoder(f).Encode(entry); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return c.fs.Rename(tmp, p)
}

// Get reads the entry stored under key. Missing entries and entries from an
// older schema report false without an error.
func (c *DiskCache) Get(key Key) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.fs.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if entry.Schema != schemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fs.RemoveAll(filepath.Join(c.dir, "diags"))
}
