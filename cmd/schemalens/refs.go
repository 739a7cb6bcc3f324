package main

import (
	"github.com/spf13/cobra"
)

var refsCmd = &cobra.Command{
	Use:   "refs [path]",
	Short: "List tables as lightweight references",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := newAdapter(newLogger())
		if err != nil {
			return err
		}
		path := sourcePath(args, cfg)

		refs, err := a.LoadTableReferences(path)
		if err != nil {
			return err
		}
		defer printStats(a)

		if outputFormat == "json" {
			return renderJSON(refs)
		}
		renderReferences(refs)
		return nil
	},
}
