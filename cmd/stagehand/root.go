package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "stagehand",
	Short:         "Stagehand is a front-end build pipeline orchestrator",
	Long:          `Stagehand wires a bundler, asset copying, stylesheet and font concatenation, a linter, a test runner, and a live-reloading dev server into one task graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		printTasks(cmd.OutOrStdout())
		return nil
	},
}

// Execute runs the CLI. A failing task exits non-zero after printing the
// failing task name and underlying message.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleFail.Render("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "project configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

// printTasks lists the tasks reachable from the command line. Printing the
// listing touches no artifact.
func printTasks(w io.Writer) {
	fmt.Fprintln(w, styleTitle.Render("stagehand tasks"))
	for _, t := range []struct{ name, desc string }{
		{"build", "produce the full artifact tree"},
		{"dev", "build, watch, and serve with live reload"},
		{"lint", "run the linter over the sources"},
		{"test", "run the test suite"},
	} {
		fmt.Fprintf(w, "  %s  %s\n", styleTask.Render(fmt.Sprintf("%-6s", t.name)), t.desc)
	}
}
