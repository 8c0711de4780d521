package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Produce the full artifact tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return a.runTask(ctx, pipeline.TaskBuild)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
