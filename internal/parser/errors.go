// Package parser converts the two supported description-file dialects, the
// structured JSON dialect and the tabular markdown dialect, into the canonical
// schema model. Each dialect has its own entry points; neither depends on the
// other.
package parser

import "fmt"

// ParseError reports a malformed or incomplete dialect structure. Field names
// the offending field or section of the source document.
type ParseError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Field, e.Message)
}

func parseErrorf(field, format string, args ...interface{}) *ParseError {
	return &ParseError{Field: field, Message: fmt.Sprintf(format, args...)}
}
