package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"icdcheck/internal/layout"
)

var layoutOutput string

// layoutCmd converts a submission layout workbook to JSON
var layoutCmd = &cobra.Command{
	Use:   "layout [workbook.xlsx]",
	Short: "Convert a submission layout workbook to a JSON field descriptor",
	Long: `Reads the first sheet of a layout workbook and emits a positional
field descriptor. Rows missing the Field, Size, or Position column are
dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: convertLayout,
}

func init() {
	layoutCmd.Flags().StringVarP(&layoutOutput, "output", "o", layout.DefaultFilename, "Descriptor output file")
}

func convertLayout(cmd *cobra.Command, args []string) error {
	l, err := layout.FromWorkbook(args[0])
	if err != nil {
		return err
	}
	if l.Dropped > 0 {
		logger.Warn("dropped incomplete layout rows", zap.Int("rows", l.Dropped))
	}
	if err := l.Write(layoutOutput); err != nil {
		return err
	}
	logger.Info("layout descriptor written",
		zap.String("path", layoutOutput),
		zap.Int("fields", len(l.Detail)))
	return nil
}
