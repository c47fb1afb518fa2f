package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

var ingestMetadata string

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a text file into the index",
	Long: `Reads a plain text file, splits it into chunks and indexes the chunks
in the vector store. Metadata supplied as a JSON object is attached to
every chunk.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMetadata, "metadata", "", "metadata as a JSON object")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	metadata := map[string]any{}
	if ingestMetadata != "" {
		if err := json.Unmarshal([]byte(ingestMetadata), &metadata); err != nil {
			return fmt.Errorf("invalid metadata JSON: %w", err)
		}
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	ragService = d.service

	if err := ragService.Ingest(context.Background(), path, metadata); err != nil {
		if errors.Is(err, domain.ErrNoDocumentsIngested) {
			return fmt.Errorf("%s produced no documents, nothing was indexed", path)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s\n", path)
	return nil
}
