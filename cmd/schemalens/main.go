package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schemalens/schemalens/internal/adapter"
	"github.com/schemalens/schemalens/internal/cache"
	"github.com/schemalens/schemalens/internal/config"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	// Global flags
	outputFormat string
	noColor      bool
	verbose      bool
	showStats    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schemalens",
		Short: "Query database schema documentation files",
		Long: `Schemalens answers structured queries about a relational database's schema
(tables, columns, indexes, relations) sourced from generator-produced
description files. Both the JSON dialect and the markdown dialect are
resolved into one canonical model.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: json or table")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print cache statistics after the command")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger; debug logging falls back to a no-op
// logger if construction fails
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newAdapter wires the adapter from loaded configuration
func newAdapter(logger *zap.Logger) (*adapter.Adapter, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	a := adapter.New(
		adapter.WithLogger(logger),
		adapter.WithCache(cache.New(cache.Config{
			Capacity: cfg.Cache.Capacity,
			TTL:      cfg.Cache.TTL,
		})),
	)
	return a, cfg, nil
}

// sourcePath picks the schema source: the positional argument when given,
// otherwise the configured schema directory
func sourcePath(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Schema.Dir
}

func printStats(a *adapter.Adapter) {
	if !showStats {
		return
	}
	s := a.Stats()
	fmt.Fprintf(os.Stderr, "cache: hits=%d misses=%d hitRate=%.2f size=%d\n",
		s.Hits, s.Misses, s.HitRate, s.Size)
}
