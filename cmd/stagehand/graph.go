package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/pipeline"
	"github.com/avendel/stagehand/internal/plan"
)

var graphCmd = &cobra.Command{
	Use:   "graph [task]",
	Short: "Print the resolved execution plan for a task",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := pipeline.TaskBuild
		if len(args) == 1 {
			root = args[0]
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		node, err := plan.Resolve(a.reg, root)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), node.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
