// Package cmd wires the CLI entry points.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vintra",
	Short: "Vintra - retrieval-augmented assistant for viticulture documents",
	Long: `Vintra serves a chat API over a pgvector document corpus.
Answers are grounded in retrieved document excerpts and carry
numbered citation markers back to their sources.

Run "vintra serve" to start the HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
