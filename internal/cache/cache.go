// Package cache implements the content-addressed summary cache from
// spec.md §4.7: immutable, sharded on disk, keyed by the hash of
// `(analysisConfigVersion, normalizedIR)`.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"jsflow/internal/canon"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ir"
	"jsflow/internal/summary"
)

// Cache is a directory tree rooted at a configured CacheRoot, sharded
// `<hex[0:2]>/<hex[2:4]>/<hex>.json` per spec.md §6.
type Cache struct {
	root string
}

// New returns a Cache rooted at root (typically config.PipelineConfig.CacheRoot).
func New(root string) *Cache { return &Cache{root: root} }

// Key computes the cache key for f under analysisConfigVersion: the hex
// SHA-256 of the canonical serialization of (analysisConfigVersion,
// normalizedIR), per spec.md §4.7. f must already be normalized.
func Key(analysisConfigVersion int, f *ir.FuncIR) (string, error) {
	tree := map[string]any{
		"analysisConfigVersion": analysisConfigVersion,
		"ir":                    f.Canonical(),
	}
	return canon.HashValue(tree)
}

func (c *Cache) path(hash string) string {
	return filepath.Join(c.root, "func_summaries", hash[0:2], hash[2:4], hash+".json")
}

// Get reads the cached summary for hash. A missing entry is reported as
// (nil, false, nil) — "absent" per spec.md §4.7 — and distinguished from any
// other I/O failure, which is surfaced as an error.
func (c *Cache) Get(hash string) (*summary.Summary, bool, error) {
	data, err := os.ReadFile(c.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	s, err := summary.FromCanonical(m)
	if err != nil {
		return nil, false, diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	return s, true, nil
}

// Put writes s under hash if no entry already exists there. Summaries are
// immutable once written: an existing target is left untouched, matching
// spec.md §4.7's "if the target path already exists, do nothing." The write
// itself goes to a sibling *.tmp file (uuid-suffixed to avoid collisions
// across concurrent writers) and is renamed into place, never written
// directly to the final path.
func (c *Cache) Put(hash string, s *summary.Summary) error {
	target := c.path(hash)
	if _, err := os.Stat(target); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return diagnostics.Wrap(diagnostics.IO, hash, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	data, err := canon.Marshal(s.Canonical())
	if err != nil {
		return diagnostics.Wrap(diagnostics.IO, hash, err)
	}

	tmp := target + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return diagnostics.Wrap(diagnostics.IO, hash, err)
	}
	return nil
}
