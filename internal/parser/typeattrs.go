package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// typeArgsPattern matches the parenthesized arguments of a raw column type,
// e.g. varchar(255) or decimal(10,2).
var typeArgsPattern = regexp.MustCompile(`^\s*([A-Za-z ]+?)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// boundedCharTypes are the base types whose single (n) argument means a
// character length limit. int(11) and friends carry display width, not a
// length, and derive nothing.
var boundedCharTypes = map[string]bool{
	"char":              true,
	"varchar":           true,
	"nchar":             true,
	"nvarchar":          true,
	"character":         true,
	"character varying": true,
	"binary":            true,
	"varbinary":         true,
}

// deriveTypeAttrs extracts maxLength or precision/scale from a raw type
// string. A (p,s) pair always yields precision and scale; a single (n) yields
// maxLength only on bounded character types.
func deriveTypeAttrs(rawType string) (maxLength, precision, scale *int) {
	m := typeArgsPattern.FindStringSubmatch(rawType)
	if m == nil {
		return nil, nil, nil
	}
	base := strings.ToLower(strings.TrimSpace(m[1]))
	first, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil, nil
	}
	if m[3] != "" {
		second, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, nil, nil
		}
		return nil, &first, &second
	}
	if boundedCharTypes[base] {
		return &first, nil, nil
	}
	return nil, nil, nil
}
