// Package resolver classifies a user-supplied path or directory by dialect.
// A file with a recognized extension is existence-checked and returned
// directly; a directory is searched for conventional description-file names
// in a fixed priority order.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dialect identifies one of the two supported description-file formats
type Dialect int

const (
	DialectJSON Dialect = iota
	DialectMarkdown
)

// String returns the dialect name
func (d Dialect) String() string {
	switch d {
	case DialectJSON:
		return "json"
	case DialectMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// Extension returns the file extension owned by the dialect
func (d Dialect) Extension() string {
	switch d {
	case DialectJSON:
		return ".json"
	case DialectMarkdown:
		return ".md"
	default:
		return ""
	}
}

// ResolvedFile is a concrete, dialect-classified description file
type ResolvedFile struct {
	Path    string
	Dialect Dialect
}

// Attempt records one candidate path tried during resolution and why it was
// rejected
type Attempt struct {
	Path   string
	Reason string
}

// ResolutionError reports a failed resolution with every attempted candidate
type ResolutionError struct {
	Path     string
	Message  string
	Attempts []Attempt
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("cannot resolve schema source %q: %s", e.Path, e.Message))
	for _, a := range e.Attempts {
		b.WriteString(fmt.Sprintf("\n  tried %s: %s", a.Path, a.Reason))
	}
	return b.String()
}

// conventionalNames are tried in priority order when resolving a directory.
// <base> is the directory's own name.
func conventionalNames(base string) []string {
	return []string{
		"schema.json",
		"README.md",
		"database.json",
		"database.md",
		base + ".json",
		base + ".md",
	}
}

// DialectForPath classifies a file path by extension
func DialectForPath(path string) (Dialect, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DialectJSON, true
	case ".md":
		return DialectMarkdown, true
	default:
		return 0, false
	}
}

// Resolve maps a user-supplied path to a concrete description file. A path
// with a recognized extension must exist as a regular file; a directory is
// searched for conventional names. Exhausting every candidate yields one
// aggregated error listing every attempted path and its failure reason.
func Resolve(pathOrDir string) (*ResolvedFile, error) {
	info, err := os.Stat(pathOrDir)
	if err != nil {
		return nil, &ResolutionError{
			Path:     pathOrDir,
			Message:  "path does not exist",
			Attempts: []Attempt{{Path: pathOrDir, Reason: err.Error()}},
		}
	}

	if !info.IsDir() {
		dialect, ok := DialectForPath(pathOrDir)
		if !ok {
			return nil, &ResolutionError{
				Path:    pathOrDir,
				Message: fmt.Sprintf("unsupported extension %q, allowed extensions are .json and .md", filepath.Ext(pathOrDir)),
			}
		}
		if !info.Mode().IsRegular() {
			return nil, &ResolutionError{
				Path:     pathOrDir,
				Message:  "not a regular file",
				Attempts: []Attempt{{Path: pathOrDir, Reason: "not a regular file"}},
			}
		}
		return &ResolvedFile{Path: pathOrDir, Dialect: dialect}, nil
	}

	return resolveDir(pathOrDir)
}

func resolveDir(dir string) (*ResolvedFile, error) {
	base := filepath.Base(absOrClean(dir))
	var attempts []Attempt
	for _, name := range conventionalNames(base) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil {
			attempts = append(attempts, Attempt{Path: candidate, Reason: "does not exist"})
			continue
		}
		if !info.Mode().IsRegular() {
			attempts = append(attempts, Attempt{Path: candidate, Reason: "not a regular file"})
			continue
		}
		dialect, _ := DialectForPath(candidate)
		return &ResolvedFile{Path: candidate, Dialect: dialect}, nil
	}
	return nil, &ResolutionError{
		Path:     dir,
		Message:  "no conventional schema description file found",
		Attempts: attempts,
	}
}

// Candidates lists the existing description-file candidates of one dialect
// under pathOrDir, in priority order. Used by the dialect-preference
// fallback.
func Candidates(pathOrDir string, dialect Dialect) []string {
	info, err := os.Stat(pathOrDir)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{pathOrDir}
	}

	base := filepath.Base(absOrClean(pathOrDir))
	var out []string
	for _, name := range conventionalNames(base) {
		if !strings.HasSuffix(name, dialect.Extension()) {
			continue
		}
		candidate := filepath.Join(pathOrDir, name)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			out = append(out, candidate)
		}
	}
	return out
}

func absOrClean(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
