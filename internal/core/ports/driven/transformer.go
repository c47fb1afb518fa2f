package driven

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// Transformer is a single stage of the ingestion pipeline.
// Stages run in configuration order; each receives the documents produced
// by the previous stage and returns the documents for the next.
type Transformer interface {
	// Name returns the stage name used in configuration and errors.
	Name() string

	// Transform processes a batch of documents. A splitter turns whole
	// files into chunks; an extractor enriches chunk metadata in place
	// by returning modified copies.
	Transform(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}
