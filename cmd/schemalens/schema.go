package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemalens/schemalens/internal/adapter"
	"github.com/schemalens/schemalens/internal/resolver"
	"github.com/schemalens/schemalens/internal/schema"
)

var preferDialect string

var schemaCmd = &cobra.Command{
	Use:   "schema [path]",
	Short: "Print the whole schema from a description file or directory",
	Example: `  # Resolve the current directory by conventional names
  schemalens schema

  # Parse a specific description file
  schemalens schema ./db/schema.json

  # Prefer the markdown dialect when both are present
  schemalens schema ./db --prefer markdown

  # JSON output for tooling
  schemalens schema ./db --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchemaCommand,
}

func init() {
	schemaCmd.Flags().StringVar(&preferDialect, "prefer", "", "Dialect preference for fallback parsing: json or markdown")
}

func runSchemaCommand(cmd *cobra.Command, args []string) error {
	a, cfg, err := newAdapter(newLogger())
	if err != nil {
		return err
	}
	path := sourcePath(args, cfg)

	s, err := loadSchema(a, path)
	if err != nil {
		return err
	}
	defer printStats(a)

	if outputFormat == "json" {
		return renderJSON(s)
	}
	renderSchema(s)
	return nil
}

func loadSchema(a *adapter.Adapter, path string) (*schema.Schema, error) {
	switch preferDialect {
	case "":
		return a.LoadSchema(path)
	case "json":
		return a.LoadSchemaWithFallback(path, resolver.DialectJSON)
	case "markdown":
		return a.LoadSchemaWithFallback(path, resolver.DialectMarkdown)
	default:
		return nil, fmt.Errorf("unknown dialect preference %q, expected json or markdown", preferDialect)
	}
}
