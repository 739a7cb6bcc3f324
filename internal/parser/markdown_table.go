package parser

import (
	"fmt"
	"strings"

	"github.com/schemalens/schemalens/internal/schema"
)

// section is a heading-delimited slice of a markdown document
type section struct {
	title string
	level int
	lines []string
}

// splitByHeadings breaks lines into the preamble before the first heading
// followed by one section per heading. A section spans until the next heading
// of the same or higher level, so deeper subsections stay inside their parent.
func splitByHeadings(lines []string, maxLevel int) (preamble []string, sections []section) {
	var current *section
	for _, line := range lines {
		level := headingLevel(line)
		if level > 0 && level <= maxLevel {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &section{title: headingText(line), level: level}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
			continue
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return preamble, sections
}

// parseMarkdownTableSection parses one per-table document slice: the first
// heading is the table name, free text before the first subsection is the
// comment, and the Columns / Indexes / Relations subsections are located by
// exact heading match.
func parseMarkdownTableSection(text string) (*schema.Table, error) {
	lines := strings.Split(text, "\n")

	// Locate the title heading and its level first; subsections are one
	// level deeper.
	titleIdx := -1
	for i, line := range lines {
		if isHeading(line) {
			titleIdx = i
			break
		}
	}
	if titleIdx < 0 {
		return nil, parseErrorf("table", "missing table name heading")
	}
	name := stripLink(headingText(lines[titleIdx]))
	if name == "" {
		return nil, parseErrorf("table", "missing table name heading")
	}
	titleLevel := headingLevel(lines[titleIdx])

	preamble, sections := splitByHeadings(lines[titleIdx+1:], titleLevel+1)

	t := &schema.Table{
		Name:    name,
		Comment: freeText(preamble),
	}

	var columnsSection, indexesSection, relationsSection *section
	for i := range sections {
		switch sections[i].title {
		case "Columns":
			columnsSection = &sections[i]
		case "Indexes":
			indexesSection = &sections[i]
		case "Relations":
			relationsSection = &sections[i]
		}
	}

	if columnsSection == nil {
		return nil, parseErrorf(fmt.Sprintf("%s.Columns", name), "missing Columns section")
	}
	columns, err := parseMarkdownColumns(name, columnsSection.lines)
	if err != nil {
		return nil, err
	}
	t.Columns = columns

	// Indexes and Relations degrade to empty lists when absent.
	if indexesSection != nil {
		t.Indexes = parseMarkdownIndexes(indexesSection.lines)
	}
	if relationsSection != nil {
		t.Relations = parseMarkdownRelations(name, relationsSection.lines)
	}

	return t, nil
}

// freeText joins non-empty, non-table lines into an optional comment
func freeText(lines []string) *string {
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "|") || trimmed == "---" {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return nil
	}
	joined := strings.Join(kept, " ")
	return &joined
}

// parseMarkdownColumns parses the Columns row table. Malformed rows are
// skipped; a missing table or zero surviving columns is a hard error.
func parseMarkdownColumns(table string, lines []string) ([]schema.Column, error) {
	t := findPipeTable(lines, "name", "type")
	if t == nil {
		return nil, parseErrorf(fmt.Sprintf("%s.Columns", table), "no column table found")
	}

	var columns []schema.Column
	for _, row := range t.rows {
		name := stripLink(t.cell(row, "name"))
		typ := t.cell(row, "type")
		if name == "" || typ == "" {
			continue
		}
		maxLength, precision, scale := deriveTypeAttrs(typ)
		columns = append(columns, schema.Column{
			Name:         name,
			Type:         typ,
			Nullable:     parseNullable(t.cell(row, "nullable")),
			DefaultValue: optionalString(t.cell(row, "default")),
			Comment:      optionalString(t.cell(row, "comment")),
			MaxLength:    maxLength,
			Precision:    precision,
			Scale:        scale,
		})
	}
	if len(columns) == 0 {
		return nil, parseErrorf(fmt.Sprintf("%s.Columns", table), "no parseable column rows")
	}
	return columns, nil
}

func parseNullable(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "false", "no", "not null":
		return false
	default:
		return true
	}
}

// parseMarkdownIndexes parses the Indexes row table, deriving columns and
// classification from the free-form definition when present. Malformed rows
// are skipped; the section is optional.
func parseMarkdownIndexes(lines []string) []schema.Index {
	t := findPipeTable(lines, "name")
	if t == nil {
		return nil
	}

	var indexes []schema.Index
	for _, row := range t.rows {
		name := t.cell(row, "name")
		if name == "" {
			continue
		}

		def := t.cell(row, "definition")
		columns := splitList(t.cell(row, "columns"))
		if len(columns) == 0 {
			columns = columnsFromDefinition(def)
		}
		if len(columns) == 0 {
			continue
		}

		lower := strings.ToLower(def + " " + t.cell(row, "unique"))
		isPrimary := strings.Contains(lower, "primary") || strings.Contains(strings.ToLower(name), "primary")
		isUnique := isPrimary || strings.Contains(lower, "unique") || strings.Contains(lower, "true")

		indexes = append(indexes, schema.Index{
			Name:      name,
			Columns:   columns,
			IsUnique:  isUnique,
			IsPrimary: isPrimary,
			Type:      classifyIndex("", strings.ToLower(def), isPrimary, isUnique),
			Comment:   optionalString(t.cell(row, "comment")),
		})
	}
	return indexes
}

// columnsFromDefinition pulls the covered column list out of an index
// definition such as "CREATE UNIQUE INDEX idx ON users (email, tenant_id)",
// taking the last parenthesized group.
func columnsFromDefinition(def string) []string {
	open := strings.LastIndex(def, "(")
	end := strings.LastIndex(def, ")")
	if open < 0 || end <= open {
		return nil
	}
	return splitList(def[open+1 : end])
}

// parseMarkdownRelations handles both relation grammars: the cardinality
// table and the legacy per-parent-table subsection shape. The section is
// optional and degrades to an empty list.
func parseMarkdownRelations(table string, lines []string) []schema.Relation {
	_, subsections := splitByHeadings(lines, 6)
	if len(subsections) > 0 {
		var relations []schema.Relation
		for _, sub := range subsections {
			relations = append(relations, parseLegacyRelationSubsection(table, sub)...)
		}
		return relations
	}
	return parseCardinalityRelations(table, lines)
}

// parseCardinalityRelations parses the
// Column | Cardinality | Related Table | Related Column(s) | Constraint shape
func parseCardinalityRelations(table string, lines []string) []schema.Relation {
	t := findPipeTable(lines, "column", "cardinality")
	if t == nil {
		return nil
	}

	var relations []schema.Relation
	for _, row := range t.rows {
		columns := splitList(t.cell(row, "column"))
		related := stripLink(t.cell(row, "related table"))
		referenced := splitList(t.cell(row, "related column"))
		if len(columns) == 0 || related == "" || len(referenced) != len(columns) {
			continue
		}
		relations = append(relations, schema.Relation{
			Type:              relationTypeFromCardinality(t.cell(row, "cardinality")),
			Table:             table,
			Columns:           columns,
			ReferencedTable:   related,
			ReferencedColumns: referenced,
			ConstraintName:    optionalString(t.cell(row, "constraint")),
		})
	}
	return relations
}

func relationTypeFromCardinality(cell string) schema.RelationType {
	c := strings.ToLower(strings.TrimSpace(cell))
	switch {
	case strings.Contains(c, "zero or one"):
		return schema.RelationBelongsTo
	case strings.Contains(c, "zero or more"), strings.Contains(c, "one or more"):
		return schema.RelationHasMany
	case strings.Contains(c, "one"):
		return schema.RelationHasOne
	default:
		return schema.RelationBelongsTo
	}
}

// parseLegacyRelationSubsection parses one "### <parent table>" block with a
// Column | Table | Parent Key | Type row table
func parseLegacyRelationSubsection(table string, sub section) []schema.Relation {
	parent := stripLink(sub.title)
	t := findPipeTable(sub.lines, "column")
	if t == nil || parent == "" {
		return nil
	}

	var relations []schema.Relation
	for _, row := range t.rows {
		columns := splitList(t.cell(row, "column"))
		if len(columns) == 0 {
			continue
		}
		referencedTable := stripLink(t.cell(row, "table"))
		if referencedTable == "" {
			referencedTable = parent
		}
		referenced := splitList(t.cell(row, "parent key"))
		if len(referenced) != len(columns) {
			continue
		}
		relations = append(relations, schema.Relation{
			Type:              relationTypeFromLegacy(t.cell(row, "type")),
			Table:             table,
			Columns:           columns,
			ReferencedTable:   referencedTable,
			ReferencedColumns: referenced,
		})
	}
	return relations
}

func relationTypeFromLegacy(cell string) schema.RelationType {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "one-to-one":
		return schema.RelationHasOne
	case "one-to-many":
		return schema.RelationHasMany
	default:
		return schema.RelationBelongsTo
	}
}
