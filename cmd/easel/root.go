package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/easel/internal/api"
	"github.com/jackzampolin/easel/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Session-based generation and review workflow for illustrated documents",
	Long: `Easel plans, renders, and assembles multi-page illustrated documents
such as coloring books, storybooks, and illustrated poem collections.

The workflow:
  - Plan a session: an LLM produces a cover prompt plus one prompt per page
  - Generate pages one at a time, with prior pages fed back as style context
  - Review: edit, replace, or confirm each page
  - Finalize into a single print-ready PDF`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.easel/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "easel home directory (default: ~/.easel)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}
