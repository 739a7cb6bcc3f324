package adapter

import (
	"fmt"

	"github.com/schemalens/schemalens/internal/resolver"
	"github.com/schemalens/schemalens/internal/schema"
)

// Source is a handle to one resolved description file. It skips re-resolution
// on every call, caching parsed values under the resolved path.
type Source struct {
	adapter  *Adapter
	resolved resolver.ResolvedFile
}

// Path returns the resolved file path
func (s *Source) Path() string {
	return s.resolved.Path
}

// Dialect returns the resolved dialect
func (s *Source) Dialect() resolver.Dialect {
	return s.resolved.Dialect
}

// Schema parses and validates the whole schema
func (s *Source) Schema() (*schema.Schema, error) {
	if cached, ok := s.adapter.cache.GetSchema(s.resolved.Path); ok {
		return cached, nil
	}
	parsed, err := s.adapter.parseResolved(&s.resolved)
	if err != nil {
		return nil, err
	}
	s.adapter.cache.SetSchema(s.resolved.Path, parsed)
	return parsed, nil
}

// Table returns the named table from the resolved file
func (s *Source) Table(name string) (*schema.Table, error) {
	if cached, ok := s.adapter.cache.GetTable(s.resolved.Path, name); ok {
		return cached, nil
	}
	parsed, err := s.Schema()
	if err != nil {
		return nil, err
	}
	t := parsed.Table(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %q in %s", ErrTableNotFound, name, s.resolved.Path)
	}
	s.adapter.cache.SetTable(s.resolved.Path, name, t)
	return t.Clone(), nil
}

// Overview returns the schema-level metadata
func (s *Source) Overview() (*schema.Metadata, error) {
	return s.adapter.overviewResolved(&s.resolved)
}

// TableReferences returns the lightweight table listing
func (s *Source) TableReferences() ([]schema.TableReference, error) {
	if cached, ok := s.adapter.cache.GetTableRefs(s.resolved.Path); ok {
		return cached, nil
	}
	refs, err := s.adapter.referencesResolved(&s.resolved)
	if err != nil {
		return nil, err
	}
	s.adapter.cache.SetTableRefs(s.resolved.Path, refs)
	return refs, nil
}
