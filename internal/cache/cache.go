// Package cache provides bounded, mutation-aware memoization of resolved
// schema lookups. Entries are keyed by path and semantic category and carry
// the source's modification time captured at write; every read re-verifies
// the path with a stat, so correctness never depends on change notifications.
package cache

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/schemalens/schemalens/internal/schema"
)

// Defaults applied by New when the config leaves a field zero
const (
	DefaultCapacity = 128
	DefaultTTL      = 5 * time.Minute
)

// Config bounds the cache
type Config struct {
	Capacity int
	TTL      time.Duration
}

// Stats is a snapshot of the hit/miss bookkeeping. Counters are monotonic
// until Clear.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	Size    int     `json:"size"`
}

// entry pairs a cached value with the stat identity of its source captured
// at write time
type entry[V any] struct {
	value   V
	modTime time.Time
	isDir   bool
}

// tableKey keys the single-table namespace; a small sum type instead of a
// collision-prone concatenated string
type tableKey struct {
	path  string
	table string
}

// Cache is the four-namespace resource cache. The same path can be cached
// under raw content, parsed schema, table-reference list, and single table
// without collision. Entries are immutable values replaced atomically; two
// callers racing to repopulate a key both parse the same source and the last
// write wins.
type Cache struct {
	content *expirable.LRU[string, entry[[]byte]]
	schemas *expirable.LRU[string, entry[*schema.Schema]]
	refs    *expirable.LRU[string, entry[[]schema.TableReference]]
	tables  *expirable.LRU[tableKey, entry[*schema.Table]]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache bounded by the given capacity and time-to-live
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Cache{
		content: expirable.NewLRU[string, entry[[]byte]](cfg.Capacity, nil, cfg.TTL),
		schemas: expirable.NewLRU[string, entry[*schema.Schema]](cfg.Capacity, nil, cfg.TTL),
		refs:    expirable.NewLRU[string, entry[[]schema.TableReference]](cfg.Capacity, nil, cfg.TTL),
		tables:  expirable.NewLRU[tableKey, entry[*schema.Table]](cfg.Capacity, nil, cfg.TTL),
	}
}

// GetContent returns the cached raw file content for path if still fresh
func (c *Cache) GetContent(path string) ([]byte, bool) {
	return lookup(c, c.content, path, path)
}

// SetContent caches raw file content under path
func (c *Cache) SetContent(path string, data []byte) {
	store(c.content, path, path, append([]byte(nil), data...))
}

// GetSchema returns the cached parsed schema for path if still fresh. The
// returned value is an independent copy.
func (c *Cache) GetSchema(path string) (*schema.Schema, bool) {
	s, ok := lookup(c, c.schemas, path, path)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// SetSchema caches a parsed schema under path, storing an independent copy
func (c *Cache) SetSchema(path string, s *schema.Schema) {
	store(c.schemas, path, path, s.Clone())
}

// GetTableRefs returns the cached table-reference list for path if fresh
func (c *Cache) GetTableRefs(path string) ([]schema.TableReference, bool) {
	refs, ok := lookup(c, c.refs, path, path)
	if !ok {
		return nil, false
	}
	return schema.CloneReferences(refs), true
}

// SetTableRefs caches a table-reference list under path
func (c *Cache) SetTableRefs(path string, refs []schema.TableReference) {
	store(c.refs, path, path, schema.CloneReferences(refs))
}

// GetTable returns the cached single table for path and table name if fresh
func (c *Cache) GetTable(path, table string) (*schema.Table, bool) {
	t, ok := lookup(c, c.tables, tableKey{path: path, table: table}, path)
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// SetTable caches a single table under path and table name
func (c *Cache) SetTable(path, table string, t *schema.Table) {
	store(c.tables, tableKey{path: path, table: table}, path, t.Clone())
}

// Invalidate drops every entry for path across all four namespaces
func (c *Cache) Invalidate(path string) {
	c.content.Remove(path)
	c.schemas.Remove(path)
	c.refs.Remove(path)
	for _, k := range c.tables.Keys() {
		if k.path == path {
			c.tables.Remove(k)
		}
	}
}

// Clear drops every entry and resets the hit/miss counters
func (c *Cache) Clear() {
	c.content.Purge()
	c.schemas.Purge()
	c.refs.Purge()
	c.tables.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns a snapshot of the bookkeeping counters
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{
		Hits:   hits,
		Misses: misses,
		Size:   c.content.Len() + c.schemas.Len() + c.refs.Len() + c.tables.Len(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// lookup honors a hit only after re-statting the source path: the path must
// still be the same kind of filesystem object with a bit-identical
// modification time. Any mismatch or stat failure evicts the entry and
// counts as a miss.
func lookup[K comparable, V any](c *Cache, l *expirable.LRU[K, entry[V]], key K, path string) (V, bool) {
	var zero V
	e, ok := l.Get(key)
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if !fresh(path, e) {
		l.Remove(key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

func fresh[V any](path string, e entry[V]) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() != e.isDir {
		return false
	}
	if !e.isDir && !info.Mode().IsRegular() {
		return false
	}
	return info.ModTime().Equal(e.modTime)
}

// store captures the source path's stat identity at write time. A path that
// cannot be statted is not cached at all.
func store[K comparable, V any](l *expirable.LRU[K, entry[V]], key K, path string, value V) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	l.Add(key, entry[V]{value: value, modTime: info.ModTime(), isDir: info.IsDir()})
}
