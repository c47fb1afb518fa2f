package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askFilters []string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed documents",
	Long: `Retrieves relevant documents and generates an answer grounded in them.
Filters restrict retrieval to documents whose metadata matches, e.g.
--filter topic=ai.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVar(&askFilters, "filter", nil, "metadata filter as key=value (repeatable)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	filters, err := parseFilters(askFilters)
	if err != nil {
		return err
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	ragService = d.service

	answer, err := ragService.Ask(context.Background(), question, filters)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		data, err := json.MarshalIndent(answer.Citations, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal citations: %w", err)
		}
		cmd.Println(string(data))
	}
	return nil
}

// parseFilters converts key=value pairs into a metadata filter map.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}
