// Package schema defines the canonical, format-independent representation of a
// relational database schema. Both description-file dialects (structured JSON
// and tabular markdown) are parsed into these types, so downstream consumers
// never branch on the source format.
package schema

import (
	"encoding/json"
	"fmt"
)

// UnknownSchemaName is the sentinel used when a source document carries no
// schema name of its own.
const UnknownSchemaName = "unknown"

// RelationType represents the direction of a relationship between two tables
type RelationType int

const (
	RelationBelongsTo RelationType = iota
	RelationHasMany
	RelationHasOne
)

// String returns the canonical string form of the relation type
func (r RelationType) String() string {
	switch r {
	case RelationBelongsTo:
		return "belongsTo"
	case RelationHasMany:
		return "hasMany"
	case RelationHasOne:
		return "hasOne"
	default:
		return "unknown"
	}
}

// ParseRelationType converts a string to a RelationType
func ParseRelationType(s string) (RelationType, error) {
	switch s {
	case "belongsTo":
		return RelationBelongsTo, nil
	case "hasMany":
		return RelationHasMany, nil
	case "hasOne":
		return RelationHasOne, nil
	default:
		return 0, fmt.Errorf("unknown relation type: %s", s)
	}
}

// MarshalJSON encodes the relation type as its canonical string
func (r RelationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the relation type from its canonical string
func (r *RelationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRelationType(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Column represents a table column. Nullable defaults to true when the source
// document is silent. MaxLength, Precision and Scale are derived from the
// parenthesized arguments of the raw type string, never stated independently.
type Column struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Nullable        bool    `json:"nullable"`
	DefaultValue    *string `json:"defaultValue,omitempty"`
	Comment         *string `json:"comment,omitempty"`
	IsPrimaryKey    bool    `json:"isPrimaryKey,omitempty"`
	IsAutoIncrement bool    `json:"isAutoIncrement,omitempty"`
	MaxLength       *int    `json:"maxLength,omitempty"`
	Precision       *int    `json:"precision,omitempty"`
	Scale           *int    `json:"scale,omitempty"`
}

// Index represents a table index. IsPrimary implies IsUnique.
type Index struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"isUnique"`
	IsPrimary bool     `json:"isPrimary"`
	Type      string   `json:"type,omitempty"`
	Comment   *string  `json:"comment,omitempty"`
}

// Relation represents a relationship between two tables. Columns and
// ReferencedColumns are positional pairs and must have the same length.
type Relation struct {
	Type              RelationType `json:"type"`
	Table             string       `json:"table"`
	Columns           []string     `json:"columns"`
	ReferencedTable   string       `json:"referencedTable"`
	ReferencedColumns []string     `json:"referencedColumns"`
	ConstraintName    *string      `json:"constraintName,omitempty"`
}

// Table represents a fully parsed database table
type Table struct {
	Name      string     `json:"name"`
	Comment   *string    `json:"comment,omitempty"`
	Columns   []Column   `json:"columns"`
	Indexes   []Index    `json:"indexes,omitempty"`
	Relations []Relation `json:"relations,omitempty"`
}

// TableReference is a lightweight table summary used for listings, distinct
// from a full Table
type TableReference struct {
	Name        string  `json:"name"`
	Comment     *string `json:"comment,omitempty"`
	ColumnCount *int    `json:"columnCount,omitempty"`
}

// Metadata carries schema-level information. Name falls back to
// UnknownSchemaName when the source omits it.
type Metadata struct {
	Name        string  `json:"name"`
	TableCount  *int    `json:"tableCount,omitempty"`
	GeneratedAt *string `json:"generatedAt,omitempty"`
	Version     *string `json:"version,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Schema is the root of the canonical model: metadata plus ordered tables and
// table references
type Schema struct {
	Metadata        Metadata         `json:"metadata"`
	Tables          []Table          `json:"tables"`
	TableReferences []TableReference `json:"tableReferences,omitempty"`
}

// Table returns the table with the given name, or nil if absent
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// DeriveReferences builds lightweight table references from a table list
func DeriveReferences(tables []Table) []TableReference {
	refs := make([]TableReference, 0, len(tables))
	for i := range tables {
		count := len(tables[i].Columns)
		refs = append(refs, TableReference{
			Name:        tables[i].Name,
			Comment:     cloneStringPtr(tables[i].Comment),
			ColumnCount: &count,
		})
	}
	return refs
}

// Clone returns a deep copy of the schema. Cache entries hand out copies so
// callers can never mutate cached state.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Metadata: s.Metadata.clone()}
	if s.Tables != nil {
		out.Tables = make([]Table, len(s.Tables))
		for i := range s.Tables {
			out.Tables[i] = *s.Tables[i].Clone()
		}
	}
	out.TableReferences = CloneReferences(s.TableReferences)
	return out
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Name:    t.Name,
		Comment: cloneStringPtr(t.Comment),
	}
	if t.Columns != nil {
		out.Columns = make([]Column, len(t.Columns))
		for i, c := range t.Columns {
			out.Columns[i] = c
			out.Columns[i].DefaultValue = cloneStringPtr(c.DefaultValue)
			out.Columns[i].Comment = cloneStringPtr(c.Comment)
			out.Columns[i].MaxLength = cloneIntPtr(c.MaxLength)
			out.Columns[i].Precision = cloneIntPtr(c.Precision)
			out.Columns[i].Scale = cloneIntPtr(c.Scale)
		}
	}
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			out.Indexes[i] = idx
			out.Indexes[i].Columns = append([]string(nil), idx.Columns...)
			out.Indexes[i].Comment = cloneStringPtr(idx.Comment)
		}
	}
	if t.Relations != nil {
		out.Relations = make([]Relation, len(t.Relations))
		for i, rel := range t.Relations {
			out.Relations[i] = rel
			out.Relations[i].Columns = append([]string(nil), rel.Columns...)
			out.Relations[i].ReferencedColumns = append([]string(nil), rel.ReferencedColumns...)
			out.Relations[i].ConstraintName = cloneStringPtr(rel.ConstraintName)
		}
	}
	return out
}

// CloneReferences returns a deep copy of a table reference list
func CloneReferences(refs []TableReference) []TableReference {
	if refs == nil {
		return nil
	}
	out := make([]TableReference, len(refs))
	for i, r := range refs {
		out[i] = TableReference{
			Name:        r.Name,
			Comment:     cloneStringPtr(r.Comment),
			ColumnCount: cloneIntPtr(r.ColumnCount),
		}
	}
	return out
}

func (m Metadata) clone() Metadata {
	return Metadata{
		Name:        m.Name,
		TableCount:  cloneIntPtr(m.TableCount),
		GeneratedAt: cloneStringPtr(m.GeneratedAt),
		Version:     cloneStringPtr(m.Version),
		Description: cloneStringPtr(m.Description),
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
