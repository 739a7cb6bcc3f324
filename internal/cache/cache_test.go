package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/schema"
)

func tempSchemaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tables": []}`), 0o644))
	return path
}

func sampleSchema() *schema.Schema {
	return &schema.Schema{
		Metadata: schema.Metadata{Name: "app"},
		Tables: []schema.Table{{
			Name:    "users",
			Columns: []schema.Column{{Name: "id", Type: "int"}},
		}},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := New(Config{})
	path := tempSchemaFile(t)

	t.Run("content", func(t *testing.T) {
		c.SetContent(path, []byte("hello"))
		got, ok := c.GetContent(path)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), got)
	})

	t.Run("schema returns an independent copy", func(t *testing.T) {
		c.SetSchema(path, sampleSchema())
		got, ok := c.GetSchema(path)
		require.True(t, ok)

		got.Tables[0].Name = "mutated"
		again, ok := c.GetSchema(path)
		require.True(t, ok)
		assert.Equal(t, "users", again.Tables[0].Name)
	})

	t.Run("table refs", func(t *testing.T) {
		n := 3
		c.SetTableRefs(path, []schema.TableReference{{Name: "users", ColumnCount: &n}})
		refs, ok := c.GetTableRefs(path)
		require.True(t, ok)
		require.Len(t, refs, 1)
		assert.Equal(t, 3, *refs[0].ColumnCount)
	})

	t.Run("single table keyed by path and name", func(t *testing.T) {
		c.SetTable(path, "users", &sampleSchema().Tables[0])
		got, ok := c.GetTable(path, "users")
		require.True(t, ok)
		assert.Equal(t, "users", got.Name)

		_, ok = c.GetTable(path, "orders")
		assert.False(t, ok)
	})
}

func TestCacheModTimeVerification(t *testing.T) {
	c := New(Config{})
	path := tempSchemaFile(t)

	c.SetSchema(path, sampleSchema())
	_, ok := c.GetSchema(path)
	require.True(t, ok)

	t.Run("touched file invalidates the entry", func(t *testing.T) {
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(path, later, later))

		_, ok := c.GetSchema(path)
		assert.False(t, ok, "stale entry must not be served")

		// The stale entry was evicted, not just skipped.
		_, ok = c.GetSchema(path)
		assert.False(t, ok)
	})

	t.Run("deleted file invalidates the entry", func(t *testing.T) {
		gone := tempSchemaFile(t)
		c.SetSchema(gone, sampleSchema())
		require.NoError(t, os.Remove(gone))

		_, ok := c.GetSchema(gone)
		assert.False(t, ok)
	})

	t.Run("unstattable path is never cached", func(t *testing.T) {
		before := c.Stats().Size
		c.SetSchema(filepath.Join(t.TempDir(), "missing.json"), sampleSchema())
		assert.Equal(t, before, c.Stats().Size, "no entry written")
	})
}

func TestCacheCapacityBound(t *testing.T) {
	c := New(Config{Capacity: 4})
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, fmt.Sprintf("s%d.json", i))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		paths = append(paths, path)
		c.SetContent(path, []byte("{}"))
	}

	_, ok := c.GetContent(paths[0])
	assert.False(t, ok, "oldest entry evicted at capacity")
	for _, p := range paths[1:] {
		_, ok := c.GetContent(p)
		assert.True(t, ok, p)
	}
}

func TestCacheStats(t *testing.T) {
	c := New(Config{})
	path := tempSchemaFile(t)

	_, ok := c.GetContent(path) // miss
	require.False(t, ok)
	c.SetContent(path, []byte("x"))
	_, ok = c.GetContent(path) // hit
	require.True(t, ok)
	_, _ = c.GetContent(path) // hit

	s := c.Stats()
	assert.Equal(t, uint64(2), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.InDelta(t, 2.0/3.0, s.HitRate, 1e-9)
	assert.Equal(t, 1, s.Size)

	t.Run("clear resets counters and entries", func(t *testing.T) {
		c.Clear()
		s := c.Stats()
		assert.Zero(t, s.Hits)
		assert.Zero(t, s.Misses)
		assert.Zero(t, s.HitRate)
		assert.Zero(t, s.Size)
	})
}

func TestCacheInvalidate(t *testing.T) {
	c := New(Config{})
	path := tempSchemaFile(t)
	other := tempSchemaFile(t)

	c.SetContent(path, []byte("x"))
	c.SetSchema(path, sampleSchema())
	c.SetTableRefs(path, []schema.TableReference{{Name: "users"}})
	c.SetTable(path, "users", &sampleSchema().Tables[0])
	c.SetContent(other, []byte("y"))

	c.Invalidate(path)

	_, ok := c.GetContent(path)
	assert.False(t, ok)
	_, ok = c.GetSchema(path)
	assert.False(t, ok)
	_, ok = c.GetTableRefs(path)
	assert.False(t, ok)
	_, ok = c.GetTable(path, "users")
	assert.False(t, ok)

	_, ok = c.GetContent(other)
	assert.True(t, ok, "other paths untouched")
}
