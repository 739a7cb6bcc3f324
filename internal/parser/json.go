package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/schemalens/schemalens/internal/schema"
)

// Raw shapes for the structured-object dialect. Field names accept both the
// generator's snake_case convention and the canonical camelCase names, so a
// marshalled canonical Schema parses back to an equal value.

type jsonDocument struct {
	Schemas []jsonSchema `json:"schemas"`
	jsonSchema
}

type jsonSchema struct {
	Name        string         `json:"name"`
	Desc        string         `json:"desc"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Generated   string         `json:"generated"`
	Metadata    *jsonMetadata  `json:"metadata"`
	Tables      []jsonTable    `json:"tables"`
	Relations   []jsonRelation `json:"relations"`
}

type jsonMetadata struct {
	Name        string `json:"name"`
	TableCount  *int   `json:"tableCount"`
	GeneratedAt string `json:"generatedAt"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type jsonTable struct {
	Name      string         `json:"name"`
	Comment   string         `json:"comment"`
	Columns   []jsonColumn   `json:"columns"`
	Indexes   []jsonIndex    `json:"indexes"`
	Relations []jsonRelation `json:"relations"`
}

type jsonColumn struct {
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Nullable        *bool           `json:"nullable"`
	Default         json.RawMessage `json:"default"`
	DefaultValue    json.RawMessage `json:"defaultValue"`
	ExtraDef        string          `json:"extra_def"`
	Comment         string          `json:"comment"`
	IsPrimaryKey    bool            `json:"isPrimaryKey"`
	IsAutoIncrement bool            `json:"isAutoIncrement"`
}

type jsonIndex struct {
	Name      string   `json:"name"`
	Def       string   `json:"def"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"isUnique"`
	IsPrimary bool     `json:"isPrimary"`
	Type      string   `json:"type"`
	Comment   string   `json:"comment"`
}

// jsonRelation serves both table-embedded relations and schema-level flat
// lists. The parent side accepts parent_table/parent_columns as well as the
// canonical referencedTable/referencedColumns.
type jsonRelation struct {
	Type              string   `json:"type"`
	Table             string   `json:"table"`
	Columns           []string `json:"columns"`
	ParentTable       string   `json:"parent_table"`
	ParentColumns     []string `json:"parent_columns"`
	ReferencedTable   string   `json:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns"`
	Def               string   `json:"def"`
	Name              string   `json:"name"`
	ConstraintName    string   `json:"constraintName"`
}

func (r *jsonRelation) parent() string {
	if r.ParentTable != "" {
		return r.ParentTable
	}
	return r.ReferencedTable
}

func (r *jsonRelation) parentColumns() []string {
	if len(r.ParentColumns) > 0 {
		return r.ParentColumns
	}
	return r.ReferencedColumns
}

func (r *jsonRelation) constraint() *string {
	name := r.ConstraintName
	if name == "" {
		name = r.Name
	}
	if name == "" {
		return nil
	}
	return &name
}

// ParseJSONSchema parses a structured-object dialect document. When the
// document carries a multi-schema collection the first entry is selected.
func ParseJSONSchema(data []byte) (*schema.Schema, error) {
	return ParseJSONSchemaNamed(data, "")
}

// ParseJSONSchemaNamed parses a structured-object dialect document. When the
// document carries a multi-schema collection, the entry matching name is
// selected; an empty name selects the first entry.
func ParseJSONSchemaNamed(data []byte, name string) (*schema.Schema, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, parseErrorf("", "invalid JSON document: %v", err)
	}

	raw := doc.jsonSchema
	if len(doc.Schemas) > 0 {
		found := false
		for _, candidate := range doc.Schemas {
			if name == "" || schemaName(candidate) == name {
				raw = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, parseErrorf("schemas", "no schema named %q in multi-schema document", name)
		}
	}

	return parseJSONSchema(raw)
}

func schemaName(raw jsonSchema) string {
	if raw.Metadata != nil && raw.Metadata.Name != "" {
		return raw.Metadata.Name
	}
	return raw.Name
}

func parseJSONSchema(raw jsonSchema) (*schema.Schema, error) {
	if raw.Tables == nil {
		return nil, parseErrorf("tables", "missing required tables collection")
	}

	// First pass: build immutable tables without schema-level relations.
	tables := make([]schema.Table, 0, len(raw.Tables))
	byName := make(map[string]int, len(raw.Tables))
	for _, rt := range raw.Tables {
		t, err := parseJSONTable(rt)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
		byName[t.Name] = len(tables) - 1
	}

	// Embedded relations must point at tables present in this parse.
	for _, t := range tables {
		for _, rel := range t.Relations {
			if _, ok := byName[rel.ReferencedTable]; !ok {
				return nil, parseErrorf(
					fmt.Sprintf("tables.%s.relations", t.Name),
					"relation references unknown table %q", rel.ReferencedTable)
			}
		}
	}

	// Second pass: fold schema-level relations into both endpoints, then
	// merge into the final tables.
	extra := make(map[string][]schema.Relation)
	for i, rel := range raw.Relations {
		field := fmt.Sprintf("relations[%d]", i)
		if rel.Table == "" {
			return nil, parseErrorf(field, "missing table")
		}
		parent := rel.parent()
		if parent == "" {
			return nil, parseErrorf(field, "missing parent table")
		}
		if _, ok := byName[rel.Table]; !ok {
			return nil, parseErrorf(field, "relation references unknown table %q", rel.Table)
		}
		if _, ok := byName[parent]; !ok {
			return nil, parseErrorf(field, "relation references unknown table %q", parent)
		}
		parentCols := rel.parentColumns()
		if len(rel.Columns) == 0 {
			return nil, parseErrorf(field, "empty columns")
		}
		if len(rel.Columns) != len(parentCols) {
			return nil, parseErrorf(field, "columns (%d) and parent columns (%d) must have the same length",
				len(rel.Columns), len(parentCols))
		}
		extra[rel.Table] = append(extra[rel.Table], schema.Relation{
			Type:              schema.RelationBelongsTo,
			Table:             rel.Table,
			Columns:           append([]string(nil), rel.Columns...),
			ReferencedTable:   parent,
			ReferencedColumns: append([]string(nil), parentCols...),
			ConstraintName:    rel.constraint(),
		})
		extra[parent] = append(extra[parent], schema.Relation{
			Type:              schema.RelationHasMany,
			Table:             parent,
			Columns:           append([]string(nil), parentCols...),
			ReferencedTable:   rel.Table,
			ReferencedColumns: append([]string(nil), rel.Columns...),
			ConstraintName:    rel.constraint(),
		})
	}
	for name, rels := range extra {
		i := byName[name]
		tables[i].Relations = append(tables[i].Relations, rels...)
	}

	return &schema.Schema{
		Metadata:        parseJSONMetadata(raw),
		Tables:          tables,
		TableReferences: schema.DeriveReferences(tables),
	}, nil
}

func parseJSONMetadata(raw jsonSchema) schema.Metadata {
	meta := schema.Metadata{Name: raw.Name}
	if raw.Metadata != nil {
		if raw.Metadata.Name != "" {
			meta.Name = raw.Metadata.Name
		}
		meta.TableCount = raw.Metadata.TableCount
		meta.GeneratedAt = optionalString(raw.Metadata.GeneratedAt)
		meta.Version = optionalString(raw.Metadata.Version)
		meta.Description = optionalString(raw.Metadata.Description)
	}
	if meta.Name == "" {
		meta.Name = schema.UnknownSchemaName
	}
	if meta.GeneratedAt == nil {
		meta.GeneratedAt = optionalString(raw.Generated)
	}
	if meta.Version == nil {
		meta.Version = optionalString(raw.Version)
	}
	if meta.Description == nil {
		meta.Description = optionalString(raw.Description)
	}
	if meta.Description == nil {
		meta.Description = optionalString(raw.Desc)
	}
	return meta
}

func parseJSONTable(raw jsonTable) (*schema.Table, error) {
	if raw.Name == "" {
		return nil, parseErrorf("tables.name", "missing table name")
	}
	if len(raw.Columns) == 0 {
		return nil, parseErrorf(fmt.Sprintf("tables.%s.columns", raw.Name), "table must have at least one column")
	}

	t := &schema.Table{
		Name:    raw.Name,
		Comment: optionalString(raw.Comment),
	}

	for i, rc := range raw.Columns {
		col, err := parseJSONColumn(raw.Name, i, rc)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, *col)
	}

	for i, ri := range raw.Indexes {
		idx, err := parseJSONIndex(raw.Name, i, ri)
		if err != nil {
			return nil, err
		}
		t.Indexes = append(t.Indexes, *idx)
	}

	for i, rr := range raw.Relations {
		rel, err := parseJSONEmbeddedRelation(raw.Name, i, rr)
		if err != nil {
			return nil, err
		}
		t.Relations = append(t.Relations, *rel)
	}

	return t, nil
}

func parseJSONColumn(table string, i int, raw jsonColumn) (*schema.Column, error) {
	field := fmt.Sprintf("tables.%s.columns[%d]", table, i)
	if raw.Name == "" {
		return nil, parseErrorf(field+".name", "missing column name")
	}
	if raw.Type == "" {
		return nil, parseErrorf(field+".type", "missing column type")
	}

	extra := strings.ToLower(raw.ExtraDef)
	maxLength, precision, scale := deriveTypeAttrs(raw.Type)

	col := &schema.Column{
		Name:            raw.Name,
		Type:            raw.Type,
		Nullable:        raw.Nullable == nil || *raw.Nullable,
		DefaultValue:    rawToString(raw.Default, raw.DefaultValue),
		Comment:         optionalString(raw.Comment),
		IsPrimaryKey:    raw.IsPrimaryKey || strings.Contains(extra, "primary key"),
		IsAutoIncrement: raw.IsAutoIncrement || strings.Contains(extra, "auto_increment") || strings.Contains(extra, "auto increment"),
		MaxLength:       maxLength,
		Precision:       precision,
		Scale:           scale,
	}
	return col, nil
}

func parseJSONIndex(table string, i int, raw jsonIndex) (*schema.Index, error) {
	field := fmt.Sprintf("tables.%s.indexes[%d]", table, i)
	if raw.Name == "" {
		return nil, parseErrorf(field+".name", "missing index name")
	}
	if len(raw.Columns) == 0 {
		return nil, parseErrorf(field+".columns", "index must cover at least one column")
	}

	def := strings.ToLower(raw.Def)
	isPrimary := raw.IsPrimary || strings.Contains(def, "primary")
	isUnique := raw.IsUnique || isPrimary || strings.Contains(def, "unique")

	idx := &schema.Index{
		Name:      raw.Name,
		Columns:   append([]string(nil), raw.Columns...),
		IsUnique:  isUnique,
		IsPrimary: isPrimary,
		Type:      classifyIndex(raw.Type, def, isPrimary, isUnique),
		Comment:   optionalString(raw.Comment),
	}
	return idx, nil
}

func classifyIndex(explicit, def string, isPrimary, isUnique bool) string {
	if explicit != "" {
		return explicit
	}
	switch {
	case isPrimary:
		return "PRIMARY KEY"
	case strings.Contains(def, "fulltext"):
		return "FULLTEXT"
	case strings.Contains(def, "spatial"):
		return "SPATIAL"
	case isUnique:
		return "UNIQUE"
	default:
		return "INDEX"
	}
}

func parseJSONEmbeddedRelation(table string, i int, raw jsonRelation) (*schema.Relation, error) {
	field := fmt.Sprintf("tables.%s.relations[%d]", table, i)
	parent := raw.parent()
	if parent == "" {
		return nil, parseErrorf(field, "missing parent table")
	}
	parentCols := raw.parentColumns()
	if len(raw.Columns) == 0 {
		return nil, parseErrorf(field+".columns", "empty columns")
	}
	if len(raw.Columns) != len(parentCols) {
		return nil, parseErrorf(field, "columns (%d) and parent columns (%d) must have the same length",
			len(raw.Columns), len(parentCols))
	}

	relType := schema.RelationBelongsTo
	if raw.Type != "" {
		parsed, err := schema.ParseRelationType(raw.Type)
		if err != nil {
			return nil, parseErrorf(field+".type", "%v", err)
		}
		relType = parsed
	}

	return &schema.Relation{
		Type:              relType,
		Table:             table,
		Columns:           append([]string(nil), raw.Columns...),
		ReferencedTable:   parent,
		ReferencedColumns: append([]string(nil), parentCols...),
		ConstraintName:    raw.constraint(),
	}, nil
}

// rawToString normalizes a JSON default value to its string form. Numbers and
// booleans are rendered literally; null and absent values mean no default.
func rawToString(candidates ...json.RawMessage) *string {
	for _, raw := range candidates {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
		v := string(raw)
		return &v
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
