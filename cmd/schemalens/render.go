package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/schemalens/schemalens/internal/schema"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	tableColor   = color.New(color.FgGreen, color.Bold)
	subtleColor  = color.New(color.Faint)
	primaryColor = color.New(color.FgYellow)
)

// renderJSON prints any canonical value as indented JSON
func renderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func renderSchema(s *schema.Schema) {
	renderMetadata(&s.Metadata)
	fmt.Println()
	for i := range s.Tables {
		renderTable(&s.Tables[i])
		fmt.Println()
	}
}

func renderMetadata(m *schema.Metadata) {
	headerColor.Printf("Schema: %s\n", m.Name)
	if m.Description != nil {
		fmt.Printf("  %s\n", *m.Description)
	}
	if m.TableCount != nil {
		fmt.Printf("  tables:    %d\n", *m.TableCount)
	}
	if m.Version != nil {
		fmt.Printf("  version:   %s\n", *m.Version)
	}
	if m.GeneratedAt != nil {
		fmt.Printf("  generated: %s\n", *m.GeneratedAt)
	}
}

func renderTable(t *schema.Table) {
	tableColor.Printf("%s\n", t.Name)
	if t.Comment != nil {
		subtleColor.Printf("  %s\n", *t.Comment)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, c := range t.Columns {
		var markers []string
		if c.IsPrimaryKey {
			markers = append(markers, primaryColor.Sprint("PK"))
		}
		if c.IsAutoIncrement {
			markers = append(markers, "AI")
		}
		if !c.Nullable {
			markers = append(markers, "NOT NULL")
		}
		if c.DefaultValue != nil {
			markers = append(markers, fmt.Sprintf("DEFAULT %s", *c.DefaultValue))
		}
		comment := ""
		if c.Comment != nil {
			comment = *c.Comment
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", c.Name, c.Type, strings.Join(markers, ", "), comment)
	}
	w.Flush()

	for _, idx := range t.Indexes {
		fmt.Printf("  index %s (%s) %s\n", idx.Name, strings.Join(idx.Columns, ", "), idx.Type)
	}
	for _, rel := range t.Relations {
		fmt.Printf("  %s %s(%s) -> %s(%s)\n",
			rel.Type,
			rel.Table, strings.Join(rel.Columns, ", "),
			rel.ReferencedTable, strings.Join(rel.ReferencedColumns, ", "))
	}
}

func renderReferences(refs []schema.TableReference) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", headerColor.Sprint("NAME"), headerColor.Sprint("COLUMNS"), headerColor.Sprint("COMMENT"))
	for _, r := range refs {
		count := ""
		if r.ColumnCount != nil {
			count = fmt.Sprintf("%d", *r.ColumnCount)
		}
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, count, comment)
	}
	w.Flush()
}
