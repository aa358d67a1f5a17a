// Package cmd implements the coursechat command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "coursechat - RAG chatbot for course materials",
	Long: `coursechat answers questions about indexed course materials.

It ingests course documents into PostgreSQL with pgvector embeddings and
serves a JSON API where an LLM answers questions, searching the indexed
content through tool calls when a question needs course-specific facts.

Running coursechat without a subcommand starts the API server.`,
	RunE: runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
