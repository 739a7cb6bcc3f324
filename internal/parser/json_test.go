package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/schema"
)

func TestParseJSONSchema(t *testing.T) {
	t.Run("derives markers from extra definition", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [{
				"name": "users",
				"columns": [{"name": "id", "type": "int(11)", "extra_def": "auto_increment primary key"}]
			}]
		}`

		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)
		require.Len(t, s.Tables, 1)
		assert.Equal(t, "db", s.Metadata.Name)
		assert.Equal(t, "users", s.Tables[0].Name)

		col := s.Tables[0].Columns[0]
		assert.Equal(t, "id", col.Name)
		assert.True(t, col.IsPrimaryKey)
		assert.True(t, col.IsAutoIncrement)
		assert.True(t, col.Nullable)
		assert.Nil(t, col.MaxLength)
	})

	t.Run("derives length and precision from type strings", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [{
				"name": "products",
				"columns": [
					{"name": "sku", "type": "varchar(64)", "nullable": false},
					{"name": "price", "type": "decimal(10,2)"}
				]
			}]
		}`

		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)

		sku := s.Tables[0].Columns[0]
		require.NotNil(t, sku.MaxLength)
		assert.Equal(t, 64, *sku.MaxLength)
		assert.False(t, sku.Nullable)
		assert.Nil(t, sku.Precision)

		price := s.Tables[0].Columns[1]
		require.NotNil(t, price.Precision)
		assert.Equal(t, 10, *price.Precision)
		assert.Equal(t, 2, *price.Scale)
		assert.Nil(t, price.MaxLength)
	})

	t.Run("missing tables collection is a hard error", func(t *testing.T) {
		_, err := ParseJSONSchema([]byte(`{"name": "db"}`))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "tables", perr.Field)
	})

	t.Run("empty tables collection parses", func(t *testing.T) {
		s, err := ParseJSONSchema([]byte(`{"name": "db", "tables": []}`))
		require.NoError(t, err)
		assert.Empty(t, s.Tables)
	})

	t.Run("one broken table aborts the whole parse", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [
				{"name": "ok", "columns": [{"name": "id", "type": "int"}]},
				{"name": "broken", "columns": []}
			]
		}`
		_, err := ParseJSONSchema([]byte(doc))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Field, "broken")
	})

	t.Run("schema name falls back to the sentinel", func(t *testing.T) {
		s, err := ParseJSONSchema([]byte(`{"tables": []}`))
		require.NoError(t, err)
		assert.Equal(t, schema.UnknownSchemaName, s.Metadata.Name)
	})

	t.Run("index definition derives classification", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [{
				"name": "users",
				"columns": [{"name": "id", "type": "int"}],
				"indexes": [
					{"name": "PRIMARY", "def": "PRIMARY KEY (id)", "columns": ["id"]},
					{"name": "users_email_idx", "def": "UNIQUE KEY users_email_idx (email)", "columns": ["email"]},
					{"name": "users_name_idx", "def": "KEY users_name_idx (name)", "columns": ["name"]}
				]
			}]
		}`

		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)

		idx := s.Tables[0].Indexes
		require.Len(t, idx, 3)
		assert.True(t, idx[0].IsPrimary)
		assert.True(t, idx[0].IsUnique, "primary implies unique")
		assert.Equal(t, "PRIMARY KEY", idx[0].Type)
		assert.True(t, idx[1].IsUnique)
		assert.False(t, idx[1].IsPrimary)
		assert.Equal(t, "UNIQUE", idx[1].Type)
		assert.False(t, idx[2].IsUnique)
		assert.Equal(t, "INDEX", idx[2].Type)
	})

	t.Run("index without columns is a hard error", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [{
				"name": "users",
				"columns": [{"name": "id", "type": "int"}],
				"indexes": [{"name": "bad", "def": "KEY bad ()"}]
			}]
		}`
		_, err := ParseJSONSchema([]byte(doc))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Field, "indexes")
	})
}

func TestParseJSONRelations(t *testing.T) {
	t.Run("schema-level relations create both directions", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [
				{"name": "users", "columns": [{"name": "id", "type": "int"}]},
				{"name": "posts", "columns": [{"name": "user_id", "type": "int"}]}
			],
			"relations": [
				{"table": "posts", "columns": ["user_id"], "parent_table": "users", "parent_columns": ["id"]}
			]
		}`

		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)

		posts := s.Table("posts")
		require.Len(t, posts.Relations, 1)
		assert.Equal(t, schema.RelationBelongsTo, posts.Relations[0].Type)
		assert.Equal(t, "users", posts.Relations[0].ReferencedTable)

		users := s.Table("users")
		require.Len(t, users.Relations, 1)
		assert.Equal(t, schema.RelationHasMany, users.Relations[0].Type)
		assert.Equal(t, "posts", users.Relations[0].ReferencedTable)
	})

	t.Run("embedded relations accept both naming conventions", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [
				{"name": "users", "columns": [{"name": "id", "type": "int"}]},
				{
					"name": "posts",
					"columns": [{"name": "user_id", "type": "int"}],
					"relations": [{"columns": ["user_id"], "parent_table": "users", "parent_columns": ["id"]}]
				},
				{
					"name": "comments",
					"columns": [{"name": "post_id", "type": "int"}],
					"relations": [{"columns": ["post_id"], "referencedTable": "posts", "referencedColumns": ["id"]}]
				}
			]
		}`

		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, "users", s.Table("posts").Relations[0].ReferencedTable)
		assert.Equal(t, "posts", s.Table("comments").Relations[0].ReferencedTable)
	})

	t.Run("relation to an unknown table fails the parse", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [{"name": "posts", "columns": [{"name": "user_id", "type": "int"}]}],
			"relations": [{"table": "posts", "columns": ["user_id"], "parent_table": "users", "parent_columns": ["id"]}]
		}`
		_, err := ParseJSONSchema([]byte(doc))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Message, "users")
	})

	t.Run("mismatched column arrays fail the parse", func(t *testing.T) {
		doc := `{
			"name": "db",
			"tables": [
				{"name": "users", "columns": [{"name": "id", "type": "int"}]},
				{"name": "posts", "columns": [{"name": "user_id", "type": "int"}]}
			],
			"relations": [{"table": "posts", "columns": ["user_id"], "parent_table": "users", "parent_columns": ["id", "tenant_id"]}]
		}`
		_, err := ParseJSONSchema([]byte(doc))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Message, "same length")
	})
}

func TestParseJSONMultiSchema(t *testing.T) {
	doc := `{
		"schemas": [
			{"name": "first", "tables": [{"name": "a", "columns": [{"name": "id", "type": "int"}]}]},
			{"name": "second", "tables": [{"name": "b", "columns": [{"name": "id", "type": "int"}]}]}
		]
	}`

	t.Run("selects the first schema by default", func(t *testing.T) {
		s, err := ParseJSONSchema([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, "first", s.Metadata.Name)
	})

	t.Run("selects the named schema", func(t *testing.T) {
		s, err := ParseJSONSchemaNamed([]byte(doc), "second")
		require.NoError(t, err)
		assert.Equal(t, "second", s.Metadata.Name)
		assert.Equal(t, "b", s.Tables[0].Name)
	})

	t.Run("unknown name is a hard error", func(t *testing.T) {
		_, err := ParseJSONSchemaNamed([]byte(doc), "third")
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "schemas", perr.Field)
	})
}

func TestParseJSONRoundTrip(t *testing.T) {
	doc := `{
		"name": "shop",
		"desc": "order management",
		"version": "1.4.0",
		"tables": [
			{
				"name": "users",
				"comment": "registered accounts",
				"columns": [
					{"name": "id", "type": "int(11)", "nullable": false, "extra_def": "auto_increment primary key"},
					{"name": "email", "type": "varchar(255)", "nullable": false, "comment": "login address"},
					{"name": "balance", "type": "decimal(12,4)", "default": "0.0000"}
				],
				"indexes": [
					{"name": "PRIMARY", "def": "PRIMARY KEY (id)", "columns": ["id"]},
					{"name": "users_email_key", "def": "UNIQUE (email)", "columns": ["email"]}
				]
			},
			{
				"name": "orders",
				"columns": [
					{"name": "id", "type": "int(11)", "nullable": false},
					{"name": "user_id", "type": "int(11)", "nullable": false}
				]
			}
		],
		"relations": [
			{"table": "orders", "columns": ["user_id"], "parent_table": "users", "parent_columns": ["id"], "name": "orders_user_id_fkey"}
		]
	}`

	first, err := ParseJSONSchema([]byte(doc))
	require.NoError(t, err)

	data, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := ParseJSONSchema(data)
	require.NoError(t, err)

	// Order of tables, columns and relation direction must survive.
	require.Equal(t, first, second)
}
