package main

import (
	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview [path]",
	Short: "Print schema-level metadata",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := newAdapter(newLogger())
		if err != nil {
			return err
		}
		path := sourcePath(args, cfg)

		meta, err := a.LoadOverview(path)
		if err != nil {
			return err
		}
		defer printStats(a)

		if outputFormat == "json" {
			return renderJSON(meta)
		}
		renderMetadata(meta)
		return nil
	},
}
