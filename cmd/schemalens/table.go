package main

import (
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table <name> [path]",
	Short: "Print a single table from a description file or directory",
	Example: `  # Look up the users table in the current directory
  schemalens table users

  # Look up a table in a specific file
  schemalens table orders ./db/schema.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTableCommand,
}

func runTableCommand(cmd *cobra.Command, args []string) error {
	a, cfg, err := newAdapter(newLogger())
	if err != nil {
		return err
	}
	path := sourcePath(args[1:], cfg)

	t, err := a.LoadTable(path, args[0])
	if err != nil {
		return err
	}
	defer printStats(a)

	if outputFormat == "json" {
		return renderJSON(t)
	}
	renderTable(t)
	return nil
}
