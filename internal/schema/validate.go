package schema

import (
	"fmt"
	"strings"
)

// Violation describes a single invariant failure found during validation
type Violation struct {
	Entity  string
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Entity != "" && v.Field != "" {
		return fmt.Sprintf("%s.%s: %s", v.Entity, v.Field, v.Message)
	}
	if v.Entity != "" {
		return fmt.Sprintf("%s: %s", v.Entity, v.Message)
	}
	return v.Message
}

// ValidationError aggregates every invariant violation found in a candidate
// model, not just the first one
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("schema validation failed with %d violations:", len(e.Violations)))
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.String())
	}
	return b.String()
}

// validator collects violations across an entire candidate model
type validator struct {
	violations []Violation
}

func (v *validator) add(entity, field, format string, args ...interface{}) {
	v.violations = append(v.violations, Violation{
		Entity:  entity,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

// ValidateTable checks every table-level invariant on the candidate,
// aggregating all violations into one ValidationError. It is pure and
// side-effect free.
func ValidateTable(t Table) error {
	v := &validator{}
	v.validateTable(t)
	return v.err()
}

// ValidateSchema checks every invariant of the candidate schema, aggregating
// all violations into one ValidationError
func ValidateSchema(s Schema) error {
	v := &validator{}

	if s.Metadata.Name == "" {
		v.add("metadata", "name", "schema name must not be empty")
	}
	for i := range s.Tables {
		v.validateTable(s.Tables[i])
	}
	for i, ref := range s.TableReferences {
		if ref.Name == "" {
			v.add(fmt.Sprintf("tableReferences[%d]", i), "name", "table reference name must not be empty")
		}
	}

	return v.err()
}

func (v *validator) validateTable(t Table) {
	entity := t.Name
	if entity == "" {
		entity = "table"
		v.add(entity, "name", "table name must not be empty")
	}

	if len(t.Columns) == 0 {
		v.add(entity, "columns", "table must have at least one column")
	}
	for i, col := range t.Columns {
		v.validateColumn(entity, i, col)
	}
	for i, idx := range t.Indexes {
		v.validateIndex(entity, i, idx)
	}
	for i, rel := range t.Relations {
		v.validateRelation(entity, i, rel)
	}
}

func (v *validator) validateColumn(table string, i int, c Column) {
	entity := fmt.Sprintf("%s.columns[%d]", table, i)
	if c.Name == "" {
		v.add(entity, "name", "column name must not be empty")
	}
	if c.Type == "" {
		v.add(entity, "type", "column type must not be empty")
	}
	// Precision and scale only ever come as a (p,s) pair off the type string.
	if (c.Precision == nil) != (c.Scale == nil) {
		v.add(entity, "precision", "precision and scale must be set together")
	}
	if c.Precision != nil && c.MaxLength != nil {
		v.add(entity, "maxLength", "maxLength and precision/scale are mutually exclusive")
	}
}

func (v *validator) validateIndex(table string, i int, idx Index) {
	entity := fmt.Sprintf("%s.indexes[%d]", table, i)
	if idx.Name == "" {
		v.add(entity, "name", "index name must not be empty")
	}
	if len(idx.Columns) == 0 {
		v.add(entity, "columns", "index must cover at least one column")
	}
	if idx.IsPrimary && !idx.IsUnique {
		v.add(entity, "isUnique", "primary index must be unique")
	}
}

func (v *validator) validateRelation(table string, i int, r Relation) {
	entity := fmt.Sprintf("%s.relations[%d]", table, i)
	if r.Type != RelationBelongsTo && r.Type != RelationHasMany && r.Type != RelationHasOne {
		v.add(entity, "type", "unknown relation type %d", int(r.Type))
	}
	if r.Table == "" {
		v.add(entity, "table", "relation table must not be empty")
	}
	if r.ReferencedTable == "" {
		v.add(entity, "referencedTable", "referenced table must not be empty")
	}
	if len(r.Columns) == 0 {
		v.add(entity, "columns", "relation must cover at least one column")
	}
	if len(r.Columns) != len(r.ReferencedColumns) {
		v.add(entity, "referencedColumns", "columns (%d) and referencedColumns (%d) must have the same length",
			len(r.Columns), len(r.ReferencedColumns))
	}
}
