package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragserve/internal/adapters/driven/config/file"
	embeddingopenai "github.com/custodia-labs/ragserve/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/generator"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/ingestion"
	llmopenai "github.com/custodia-labs/ragserve/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/retriever"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/ragserve/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/core/services"
	"github.com/custodia-labs/ragserve/internal/logger"
	"github.com/custodia-labs/ragserve/internal/transform"
)

// deps holds everything buildDeps wires together, so commands can close
// what they opened.
type deps struct {
	service  *services.RAGService
	llm      driven.LLMService
	embedder driven.EmbeddingService
	store    driven.VectorStore
	log      driven.InteractionStore
}

// Close releases all held resources.
func (d *deps) Close() {
	if d.llm != nil {
		_ = d.llm.Close()
	}
	if d.embedder != nil {
		_ = d.embedder.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.log != nil {
		_ = d.log.Close()
	}
}

// buildDeps assembles the full service graph from configuration.
func buildDeps(cfg file.Config) (*deps, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.LLMModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM service: %w", err)
	}

	embedder, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		llm.Close()
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	store, err := buildVectorStore(cfg)
	if err != nil {
		llm.Close()
		embedder.Close()
		return nil, err
	}

	// Qdrant collections must exist before the first upsert.
	if q, ok := store.(*qdrant.Store); ok {
		if err := q.Init(context.Background(), embedder.Dimensions()); err != nil {
			llm.Close()
			embedder.Close()
			store.Close()
			return nil, fmt.Errorf("initialising Qdrant collection: %w", err)
		}
	}

	pipeline, err := buildPipeline(cfg, llm)
	if err != nil {
		llm.Close()
		embedder.Close()
		store.Close()
		return nil, err
	}

	ret := retriever.New(store, embedder,
		retriever.WithTopK(cfg.Retriever.TopK),
		retriever.WithCacheCapacity(cfg.Retriever.CacheCapacity),
	)
	gen := generator.New(llm)
	ing := ingestion.New(pipeline)

	var interactions driven.InteractionStore
	if cfg.Storage.LogInteractions {
		logStore, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			// The interaction log is optional; run without it.
			logger.Warn("Interaction log unavailable: %v", err)
		} else {
			interactions = logStore
		}
	}

	return &deps{
		service:  services.NewRAGService(ing, ret, gen, interactions),
		llm:      llm,
		embedder: embedder,
		store:    store,
		log:      interactions,
	}, nil
}

// buildVectorStore selects Qdrant when a URL is configured and falls
// back to the in-memory store otherwise.
func buildVectorStore(cfg file.Config) (driven.VectorStore, error) {
	if cfg.Qdrant.URL == "" {
		logger.Info("No Qdrant URL configured, using in-memory vector store")
		return memory.New(), nil
	}
	store, err := qdrant.New(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Qdrant store: %w", err)
	}
	return store, nil
}

// buildPipeline constructs the transformation pipeline from the
// configured stage list.
func buildPipeline(cfg file.Config, llm driven.LLMService) (*transform.Pipeline, error) {
	registry := transform.NewRegistry()
	transform.RegisterDefaults(registry, llm)

	pipeline := transform.NewPipeline()
	for _, stage := range cfg.Transform {
		t, err := registry.Build(stage.Name, stage.Config)
		if err != nil {
			return nil, fmt.Errorf("building pipeline: %w", err)
		}
		pipeline.Add(t)
	}
	return pipeline, nil
}
