package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"icdcheck/internal/watch"
)

// watchCmd processes documents as they appear in a directory
var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Process retrieval output documents as they arrive",
	Long: `Watches a directory for new or modified .json documents and runs each
one through the agent panel once it has settled. Results are persisted to
the run history database when a store path is configured.

Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: watchDirectory,
}

func watchDirectory(cmd *cobra.Command, args []string) error {
	p, err := newPanel()
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	handler := func(path string) {
		if _, err := p.process(ctx, []string{path}); err != nil {
			logger.Error("failed to process document", zap.String("path", path), zap.Error(err))
		}
	}

	w, err := watch.New(args[0], handler, logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	return w.Stop()
}
