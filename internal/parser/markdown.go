package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/schemalens/schemalens/internal/schema"
)

var (
	hrPattern         = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)
	generatedPattern  = regexp.MustCompile(`(?i)^\s*\*{0,2}generated(?:\s+at)?\*{0,2}\s*:\s*(.+?)\s*$`)
	tableCountPattern = regexp.MustCompile(`(?i)^\s*\*{0,2}(?:total\s+)?tables\*{0,2}\s*:\s*(\d+)\s*$`)
	versionPattern    = regexp.MustCompile(`(?i)^\s*\*{0,2}version\*{0,2}\s*:\s*(.+?)\s*$`)
)

// timestampLayouts are tried in order when a generation timestamp is not
// already ISO-8601
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Mon Jan 2 15:04:05 2006",
	"2006-01-02",
}

// ParseMarkdownSchema parses a tabular-markup dialect document. A document
// with a Tables overview heading is treated as a full schema; anything else
// is treated as a single-table document.
func ParseMarkdownSchema(text string) (*schema.Schema, error) {
	if !isSchemaDocument(text) {
		return ParseMarkdownTable(text)
	}

	sections := splitOnRules(text)
	meta := parseOverviewSection(sections[0])
	refs := ParseMarkdownTableReferences(sections[0])

	// A table section that fails to parse aborts the whole document; only
	// individual malformed rows inside a section are skipped.
	var tables []schema.Table
	for _, sec := range sections[1:] {
		if strings.TrimSpace(sec) == "" {
			continue
		}
		t, err := parseMarkdownTableSection(sec)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}

	if len(refs) == 0 {
		refs = schema.DeriveReferences(tables)
	}
	return &schema.Schema{
		Metadata:        meta,
		Tables:          tables,
		TableReferences: refs,
	}, nil
}

// ParseMarkdownTable parses a document describing exactly one table,
// synthesizing minimal schema metadata from the table name
func ParseMarkdownTable(text string) (*schema.Schema, error) {
	t, err := parseMarkdownTableSection(text)
	if err != nil {
		return nil, err
	}
	tables := []schema.Table{*t}
	return &schema.Schema{
		Metadata:        schema.Metadata{Name: t.Name},
		Tables:          tables,
		TableReferences: schema.DeriveReferences(tables),
	}, nil
}

// ParseMarkdownOverview extracts schema metadata from the overview portion of
// a document: the titled heading, the free-text description, a labelled
// generation timestamp, and a labelled table count.
func ParseMarkdownOverview(text string) (*schema.Metadata, error) {
	if strings.TrimSpace(text) == "" {
		return nil, parseErrorf("overview", "empty document")
	}
	meta := parseOverviewSection(splitOnRules(text)[0])
	return &meta, nil
}

// ParseMarkdownTableReferences extracts the reference summary table from the
// overview. It never fails: a document without a Tables section yields an
// empty list.
func ParseMarkdownTableReferences(text string) []schema.TableReference {
	lines := strings.Split(splitOnRules(text)[0], "\n")
	_, sections := splitByHeadings(lines, 6)

	var tablesSection *section
	for i := range sections {
		if sections[i].title == "Tables" {
			tablesSection = &sections[i]
			break
		}
	}
	if tablesSection == nil {
		return nil
	}

	t := findPipeTable(tablesSection.lines, "name")
	if t == nil {
		return nil
	}

	refs := make([]schema.TableReference, 0, len(t.rows))
	for _, row := range t.rows {
		name := stripLink(t.cell(row, "name"))
		if name == "" {
			continue
		}
		ref := schema.TableReference{
			Name:    name,
			Comment: optionalString(t.cell(row, "comment")),
		}
		if count, err := strconv.Atoi(t.cell(row, "column")); err == nil {
			ref.ColumnCount = &count
		}
		refs = append(refs, ref)
	}
	return refs
}

// isSchemaDocument reports whether the document is a full-schema overview as
// opposed to a single-table document, recognized by a Tables heading
func isSchemaDocument(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isHeading(line) && headingText(line) == "Tables" {
			return true
		}
	}
	return false
}

// splitOnRules splits a document on horizontal-rule delimiters into the
// overview section plus the per-table sections
func splitOnRules(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var current []string
	for _, line := range lines {
		if hrPattern.MatchString(strings.TrimSpace(line)) {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	sections = append(sections, strings.Join(current, "\n"))
	return sections
}

func parseOverviewSection(text string) schema.Metadata {
	lines := strings.Split(text, "\n")
	meta := schema.Metadata{Name: schema.UnknownSchemaName}

	titleSeen := false
	var description []string
	descriptionDone := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !titleSeen && isHeading(trimmed) {
			titleSeen = true
			if name := cleanSchemaTitle(headingText(trimmed)); name != "" {
				meta.Name = name
			}
			continue
		}

		if m := generatedPattern.FindStringSubmatch(trimmed); m != nil {
			ts := normalizeTimestamp(m[1])
			meta.GeneratedAt = &ts
			descriptionDone = true
			continue
		}
		if m := tableCountPattern.FindStringSubmatch(trimmed); m != nil {
			if count, err := strconv.Atoi(m[1]); err == nil {
				meta.TableCount = &count
			}
			descriptionDone = true
			continue
		}
		if m := versionPattern.FindStringSubmatch(trimmed); m != nil {
			v := m[1]
			meta.Version = &v
			descriptionDone = true
			continue
		}

		// Description is the free text between the title and the next
		// heading or structured marker.
		if titleSeen && !descriptionDone {
			if isHeading(trimmed) || strings.HasPrefix(trimmed, "|") {
				descriptionDone = true
				continue
			}
			if trimmed != "" {
				description = append(description, trimmed)
			}
		}
	}

	if len(description) > 0 {
		d := strings.Join(description, " ")
		meta.Description = &d
	}
	return meta
}

// cleanSchemaTitle strips generator boilerplate from the title heading
func cleanSchemaTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, prefix := range []string{"Database:", "Schema:", "Database Schema:"} {
		if strings.HasPrefix(strings.ToLower(title), strings.ToLower(prefix)) {
			title = strings.TrimSpace(title[len(prefix):])
		}
	}
	return title
}

// normalizeTimestamp passes ISO-8601 values through, reparses a few common
// layouts into ISO-8601, and keeps anything else raw
func normalizeTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(time.RFC3339, raw); err == nil {
		return raw
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
