package parser

import (
	"regexp"
	"strings"
)

// pipeTable is a parsed markdown row table: a labelled header plus data rows
type pipeTable struct {
	header []string
	rows   [][]string
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)
	separatorPattern = regexp.MustCompile(`^\|?\s*:?-{2,}`)
	linkPattern      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

func isHeading(line string) bool {
	return headingPattern.MatchString(line)
}

func headingLevel(line string) int {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

func headingText(line string) string {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[2])
}

// splitRow splits a pipe-delimited row into trimmed cells, dropping the
// leading and trailing empty cells produced by the outer pipes
func splitRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return nil
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") && !strings.Contains(trimmed, "---") {
		return false
	}
	cells := splitRow(trimmed)
	if cells == nil {
		return false
	}
	for _, c := range cells {
		c = strings.Trim(c, ": ")
		if c == "" || strings.Trim(c, "-") != "" {
			return false
		}
	}
	return true
}

// findPipeTable locates the first row table whose header contains every one
// of the required label substrings (case-insensitive), then consumes the dash
// separator and the data rows until a blank line, a new heading, or a
// non-pipe line. Rows with a different cell count than the header are
// dropped.
func findPipeTable(lines []string, requiredLabels ...string) *pipeTable {
	for i := 0; i < len(lines); i++ {
		header := splitRow(lines[i])
		if header == nil || !headerMatches(header, requiredLabels) {
			continue
		}
		if i+1 >= len(lines) || !isSeparatorRow(lines[i+1]) {
			continue
		}

		t := &pipeTable{header: header}
		for j := i + 2; j < len(lines); j++ {
			line := strings.TrimSpace(lines[j])
			if line == "" || isHeading(line) || !strings.HasPrefix(line, "|") {
				break
			}
			cells := splitRow(line)
			if len(cells) != len(header) {
				continue
			}
			t.rows = append(t.rows, cells)
		}
		return t
	}
	return nil
}

func headerMatches(header []string, labels []string) bool {
	joined := strings.ToLower(strings.Join(header, "|"))
	for _, label := range labels {
		if !strings.Contains(joined, strings.ToLower(label)) {
			return false
		}
	}
	return true
}

// columnIndex returns the index of the header cell containing the label
// substring, or -1
func (t *pipeTable) columnIndex(label string) int {
	for i, h := range t.header {
		if strings.Contains(strings.ToLower(h), strings.ToLower(label)) {
			return i
		}
	}
	return -1
}

// cell returns the row value under the labelled header column, or ""
func (t *pipeTable) cell(row []string, label string) string {
	i := t.columnIndex(label)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// stripLink unwraps a markdown link, returning the link text
func stripLink(s string) string {
	return strings.TrimSpace(linkPattern.ReplaceAllString(s, "$1"))
}

// splitList splits a comma-separated cell into trimmed non-empty items
func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(stripLink(p))
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}
