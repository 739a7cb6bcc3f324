package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTable() Table {
	return Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "int(11)", Nullable: false, IsPrimaryKey: true},
			{Name: "email", Type: "varchar(255)", Nullable: true},
		},
		Indexes: []Index{
			{Name: "PRIMARY", Columns: []string{"id"}, IsUnique: true, IsPrimary: true, Type: "PRIMARY KEY"},
		},
		Relations: []Relation{
			{
				Type:              RelationHasMany,
				Table:             "users",
				Columns:           []string{"id"},
				ReferencedTable:   "posts",
				ReferencedColumns: []string{"user_id"},
			},
		},
	}
}

func TestValidateTable(t *testing.T) {
	t.Run("valid table passes", func(t *testing.T) {
		require.NoError(t, ValidateTable(validTable()))
	})

	t.Run("zero-column table is rejected", func(t *testing.T) {
		table := validTable()
		table.Columns = nil

		err := ValidateTable(table)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 1)
		assert.Equal(t, "columns", verr.Violations[0].Field)
	})

	t.Run("zero-column index is rejected", func(t *testing.T) {
		table := validTable()
		table.Indexes = append(table.Indexes, Index{Name: "idx_email", IsUnique: true})

		err := ValidateTable(table)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index must cover at least one column")
	})

	t.Run("primary index must be unique", func(t *testing.T) {
		table := validTable()
		table.Indexes[0].IsUnique = false

		err := ValidateTable(table)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "primary index must be unique")
	})

	t.Run("mismatched relation column arrays are rejected", func(t *testing.T) {
		table := validTable()
		table.Relations[0].ReferencedColumns = []string{"user_id", "tenant_id"}

		err := ValidateTable(table)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same length")
	})

	t.Run("all violations are aggregated", func(t *testing.T) {
		table := Table{
			Columns: []Column{{Name: "", Type: ""}},
			Indexes: []Index{{Name: ""}},
		}

		err := ValidateTable(table)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		// table name, column name, column type, index name, index columns
		assert.GreaterOrEqual(t, len(verr.Violations), 5)
	})

	t.Run("precision without scale is rejected", func(t *testing.T) {
		table := validTable()
		p := 10
		table.Columns[0].Precision = &p

		err := ValidateTable(table)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "precision and scale must be set together")
	})
}

func TestValidateSchema(t *testing.T) {
	t.Run("valid schema passes", func(t *testing.T) {
		s := Schema{
			Metadata: Metadata{Name: "app"},
			Tables:   []Table{validTable()},
		}
		require.NoError(t, ValidateSchema(s))
	})

	t.Run("empty schema name is rejected", func(t *testing.T) {
		s := Schema{Tables: []Table{validTable()}}
		err := ValidateSchema(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema name must not be empty")
	})

	t.Run("table violations surface through the schema", func(t *testing.T) {
		s := Schema{
			Metadata: Metadata{Name: "app"},
			Tables:   []Table{{Name: "empty"}},
		}
		err := ValidateSchema(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one column")
	})

	t.Run("unnamed table reference is rejected", func(t *testing.T) {
		s := Schema{
			Metadata:        Metadata{Name: "app"},
			TableReferences: []TableReference{{}},
		}
		err := ValidateSchema(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table reference name")
	})
}
