package main

import (
	"errors"

	"github.com/spf13/cobra"

	"icdcheck/internal/config"
	"icdcheck/internal/store"
)

var historyLimit int

// historyCmd lists past runs from the history database
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs from the history database",
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
}

func showHistory(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if cfg.StorePath == "" {
		return errors.New("no store path configured; run history is disabled")
	}

	s, err := store.New(cfg.StorePath)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	return writeJSON("", runs)
}
