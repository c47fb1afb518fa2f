// Package cli implements the command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragserve/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragserve/internal/core/ports/driving"
	"github.com/custodia-labs/ragserve/internal/logger"
)

var version = "0.1.0"

var (
	cfgPath string
	verbose bool
)

// Shared state built by initialise and the per-command wiring.
var (
	cfg        file.Config
	ragService driving.RAGService
)

var rootCmd = &cobra.Command{
	Use:   "ragserve",
	Short: "Retrieval-augmented question answering over your documents",
	Long: `ragserve indexes plain text documents into a vector store and answers
questions over them using an LLM grounded in retrieved context.`,
	SilenceUsage:      true,
	PersistentPreRunE: initialise,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.ragserve/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initialise(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	loaded, err := file.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}
