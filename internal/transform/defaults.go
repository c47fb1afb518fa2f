package transform

import (
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/transform/extractor"
	"github.com/custodia-labs/ragserve/internal/transform/splitter"
)

// RegisterDefaults registers all built-in pipeline stages with the registry.
// Call this during application initialisation to enable standard stages.
// The extractor stage is only registered when an LLM service is available.
func RegisterDefaults(r *Registry, llm driven.LLMService) {
	r.Register("splitter", buildSplitter)
	if llm != nil {
		r.Register("extractor", func(_ map[string]any) (driven.Transformer, error) {
			return extractor.New(llm), nil
		})
	}
}

// buildSplitter creates a splitter stage from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1200)
//   - max_sentences (int): Sentence cap per chunk (default: uncapped)
func buildSplitter(cfg map[string]any) (driven.Transformer, error) {
	var opts []splitter.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, splitter.WithChunkSize(size))
		}
		if n := getIntFromConfig(cfg, "max_sentences"); n > 0 {
			opts = append(opts, splitter.WithMaxSentences(n))
		}
	}

	return splitter.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
