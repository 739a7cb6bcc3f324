// Package adapter composes the format resolver, both dialect parsers, and
// the validator behind one dialect-agnostic API. Callers supply a path or
// directory and get canonical values back; they never branch on dialect.
package adapter

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/schemalens/schemalens/internal/cache"
	"github.com/schemalens/schemalens/internal/parser"
	"github.com/schemalens/schemalens/internal/resolver"
	"github.com/schemalens/schemalens/internal/schema"
)

// ErrTableNotFound is returned when a resolved schema does not contain the
// requested table
var ErrTableNotFound = errors.New("table not found")

// Adapter is the dialect-agnostic entry point to schema lookups
type Adapter struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithCache sets the resource cache
func WithCache(c *cache.Cache) Option {
	return func(a *Adapter) { a.cache = c }
}

// New creates an Adapter with a default cache and a no-op logger
func New(opts ...Option) *Adapter {
	a := &Adapter{
		cache:  cache.New(cache.Config{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache exposes the underlying resource cache for invalidation wiring
func (a *Adapter) Cache() *cache.Cache {
	return a.cache
}

// Stats returns the cache bookkeeping snapshot
func (a *Adapter) Stats() cache.Stats {
	return a.cache.Stats()
}

// LoadSchema resolves pathOrDir and returns the fully validated canonical
// schema
func (a *Adapter) LoadSchema(pathOrDir string) (*schema.Schema, error) {
	if s, ok := a.cache.GetSchema(pathOrDir); ok {
		a.logger.Debug("schema cache hit", zap.String("path", pathOrDir))
		return s, nil
	}

	rf, err := resolver.Resolve(pathOrDir)
	if err != nil {
		return nil, err
	}
	s, err := a.parseResolved(rf)
	if err != nil {
		return nil, err
	}
	a.cache.SetSchema(pathOrDir, s)
	return s, nil
}

// LoadTable resolves pathOrDir and returns the named table
func (a *Adapter) LoadTable(pathOrDir, name string) (*schema.Table, error) {
	if t, ok := a.cache.GetTable(pathOrDir, name); ok {
		a.logger.Debug("table cache hit", zap.String("path", pathOrDir), zap.String("table", name))
		return t, nil
	}

	s, err := a.LoadSchema(pathOrDir)
	if err != nil {
		return nil, err
	}
	t := s.Table(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %q in %s", ErrTableNotFound, name, pathOrDir)
	}
	a.cache.SetTable(pathOrDir, name, t)
	return t.Clone(), nil
}

// LoadOverview resolves pathOrDir and returns the schema-level metadata
func (a *Adapter) LoadOverview(pathOrDir string) (*schema.Metadata, error) {
	rf, err := resolver.Resolve(pathOrDir)
	if err != nil {
		return nil, err
	}
	return a.overviewResolved(rf)
}

// LoadTableReferences resolves pathOrDir and returns the lightweight table
// listing. In the markup dialect an absent reference section degrades to an
// empty list rather than an error.
func (a *Adapter) LoadTableReferences(pathOrDir string) ([]schema.TableReference, error) {
	if refs, ok := a.cache.GetTableRefs(pathOrDir); ok {
		a.logger.Debug("table refs cache hit", zap.String("path", pathOrDir))
		return refs, nil
	}

	rf, err := resolver.Resolve(pathOrDir)
	if err != nil {
		return nil, err
	}
	refs, err := a.referencesResolved(rf)
	if err != nil {
		return nil, err
	}
	a.cache.SetTableRefs(pathOrDir, refs)
	return refs, nil
}

// LoadSchemaWithFallback tries both dialects in the given preference order
// when ordinary resolution would not settle the choice, returning the first
// candidate that parses and validates. Exhaustion surfaces every attempt
// plus the last parse error.
func (a *Adapter) LoadSchemaWithFallback(pathOrDir string, preferred resolver.Dialect) (*schema.Schema, error) {
	order := []resolver.Dialect{resolver.DialectJSON, resolver.DialectMarkdown}
	if preferred == resolver.DialectMarkdown {
		order = []resolver.Dialect{resolver.DialectMarkdown, resolver.DialectJSON}
	}

	var attempts []resolver.Attempt
	var lastParseErr error
	for _, dialect := range order {
		for _, candidate := range resolver.Candidates(pathOrDir, dialect) {
			if s, ok := a.cache.GetSchema(candidate); ok {
				return s, nil
			}
			s, err := a.parseResolved(&resolver.ResolvedFile{Path: candidate, Dialect: dialect})
			if err != nil {
				lastParseErr = err
				attempts = append(attempts, resolver.Attempt{Path: candidate, Reason: err.Error()})
				a.logger.Debug("fallback candidate failed",
					zap.String("path", candidate),
					zap.Stringer("dialect", dialect),
					zap.Error(err))
				continue
			}
			a.cache.SetSchema(candidate, s)
			return s, nil
		}
	}

	msg := "no candidate of either dialect could be parsed"
	if lastParseErr != nil {
		msg = fmt.Sprintf("%s, last parse error: %v", msg, lastParseErr)
	}
	return nil, &resolver.ResolutionError{
		Path:     pathOrDir,
		Message:  msg,
		Attempts: attempts,
	}
}

// Source resolves pathOrDir once and returns a handle for repeated access to
// the same description file without re-resolution
func (a *Adapter) Source(pathOrDir string) (*Source, error) {
	rf, err := resolver.Resolve(pathOrDir)
	if err != nil {
		return nil, err
	}
	return &Source{adapter: a, resolved: *rf}, nil
}

// parseResolved reads, parses and validates one resolved file. It performs
// no caching beyond raw content; callers decide the cache key.
func (a *Adapter) parseResolved(rf *resolver.ResolvedFile) (*schema.Schema, error) {
	data, err := a.readSource(rf.Path)
	if err != nil {
		return nil, err
	}

	var s *schema.Schema
	switch rf.Dialect {
	case resolver.DialectJSON:
		s, err = parser.ParseJSONSchema(data)
	default:
		s, err = parser.ParseMarkdownSchema(string(data))
	}
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateSchema(*s); err != nil {
		return nil, err
	}
	a.logger.Debug("parsed schema source",
		zap.String("path", rf.Path),
		zap.Stringer("dialect", rf.Dialect),
		zap.Int("tables", len(s.Tables)))
	return s, nil
}

func (a *Adapter) overviewResolved(rf *resolver.ResolvedFile) (*schema.Metadata, error) {
	data, err := a.readSource(rf.Path)
	if err != nil {
		return nil, err
	}
	if rf.Dialect == resolver.DialectMarkdown {
		return parser.ParseMarkdownOverview(string(data))
	}
	s, err := parser.ParseJSONSchema(data)
	if err != nil {
		return nil, err
	}
	meta := s.Metadata
	return &meta, nil
}

func (a *Adapter) referencesResolved(rf *resolver.ResolvedFile) ([]schema.TableReference, error) {
	data, err := a.readSource(rf.Path)
	if err != nil {
		return nil, err
	}
	if rf.Dialect == resolver.DialectMarkdown {
		return parser.ParseMarkdownTableReferences(string(data)), nil
	}
	s, err := parser.ParseJSONSchema(data)
	if err != nil {
		return nil, err
	}
	return s.TableReferences, nil
}

// readSource returns the file's bytes, via the raw-content cache namespace
func (a *Adapter) readSource(path string) ([]byte, error) {
	if data, ok := a.cache.GetContent(path); ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema source %s: %w", path, err)
	}
	a.cache.SetContent(path, data)
	return data, nil
}
