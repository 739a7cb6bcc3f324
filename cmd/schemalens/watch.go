package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemalens/schemalens/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and invalidate cached schema lookups on change",
	Long: `Watch a directory of schema description files and invalidate cache
entries when files change. The watcher is advisory: cache reads re-verify
modification times on their own, so this only tightens the staleness window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		a, cfg, err := newAdapter(logger)
		if err != nil {
			return err
		}
		dir := sourcePath(args, cfg)

		w, err := watch.New(a.Cache(), dir,
			watch.WithLogger(logger),
			watch.WithDebounce(cfg.Watch.Debounce),
		)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Printf("watching %s, press Ctrl+C to stop\n", dir)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		printStats(a)
		return nil
	},
}
