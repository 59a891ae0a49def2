// Package cmd contains the CLI entry points.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "Jarvis - conversational assistant backend",
	Long: `Jarvis is a conversational assistant backend. It answers user
messages through a language model, optionally enriched with web search
results or passages retrieved from a growing semantic memory.

Run "jarvis serve" to start the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
