package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/config"
)

const starterManifest = `# External assets pulled into the build output.
scripts: []
styles: []
fonts: []
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold project configuration and dependency manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()

		if _, err := os.Stat(config.DefaultPath); os.IsNotExist(err) {
			if err := config.Save(cfg, config.DefaultPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.DefaultPath)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, skipping\n", config.DefaultPath)
		}

		if _, err := os.Stat(cfg.Manifest); os.IsNotExist(err) {
			if err := os.WriteFile(cfg.Manifest, []byte(starterManifest), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.Manifest)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, skipping\n", cfg.Manifest)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
