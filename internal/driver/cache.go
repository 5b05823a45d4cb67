package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"guardlint/internal/source"
)

// Bump when the Entry format changes; a mismatch invalidates old files.
const cacheSchemaVersion uint16 = 1

// Digest identifies a cache entry.
type Digest [32]byte

// Cache stores per-unit verdicts on disk so clean, unchanged units can be
// skipped on the next run. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Entry records everything needed to validate a prior verdict: the files
// the unit consisted of, their content hashes, and the finding count.
type Entry struct {
	Schema     uint16
	Root       string
	FilePaths  []string
	FileHashes [][32]byte
	Findings   int
}

// Unchanged re-hashes every recorded file and reports whether the unit
// matches the entry. Hashes are taken over loader-normalized content, the
// same form the recorded hashes were computed from, so CRLF and BOM files
// validate too. Any missing or changed file invalidates the entry.
func (e *Entry) Unchanged() bool {
	if len(e.FilePaths) != len(e.FileHashes) {
		return false
	}
	for i, path := range e.FilePaths {
		hash, err := source.HashFile(path)
		if err != nil {
			return false
		}
		if hash != e.FileHashes[i] {
			return false
		}
	}
	return true
}

// OpenCache initializes a disk cache at the standard location
// ($XDG_CACHE_HOME or ~/.cache) under the given app name.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "units")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenCacheAt initializes a disk cache rooted at an explicit directory.
func OpenCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".mp")
}

// Lookup reads and validates an entry for key.
func (c *Cache) Lookup(key Digest) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Schema != cacheSchemaVersion {
		return nil, false
	}
	return &entry, true
}

// Store serializes and writes an entry for key.
func (c *Cache) Store(key Digest, entry *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.Schema = cacheSchemaVersion
	data, err := msgpack.Marshal(entry)
	if err != nil {
		return err
	}
	tmp := c.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(key))
}

// unitKey derives the cache key for a unit root under a config salt.
func unitKey(rootPath, salt string) Digest {
	h := sha256.New()
	h.Write([]byte(rootPath))
	h.Write([]byte{0})
	h.Write([]byte(salt))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// newEntry snapshots a unit result into a cache entry.
func newEntry(result *UnitResult) *Entry {
	entry := &Entry{
		Root:     result.Path,
		Findings: result.Bag.Len(),
	}
	for i := 0; i < result.FileSet.Len(); i++ {
		f := result.FileSet.Get(source.FileID(i))
		if f.Flags&source.FileVirtual != 0 {
			continue
		}
		entry.FilePaths = append(entry.FilePaths, f.Path)
		entry.FileHashes = append(entry.FileHashes, f.Hash)
	}
	return entry
}
