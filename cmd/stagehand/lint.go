package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/pipeline"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run the linter over the sources",
	Long:  "Runs the configured linter, prints its report, and exits non-zero if any violation is found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return a.runTask(ctx, pipeline.TaskLint)
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
