package driven

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// Ingester loads a file and runs it through the transformation pipeline.
type Ingester interface {
	// Ingest reads the file at path, applies the configured transformation
	// stages and returns the resulting chunks as documents. The metadata
	// map is merged into every chunk; caller keys win over file-derived
	// keys on collision.
	//
	// A nonexistent path yields an empty result and a nil error - callers
	// must check for emptiness themselves. Embeddings are not populated
	// here; that happens on the retriever write path.
	Ingest(ctx context.Context, path string, metadata map[string]any) ([]domain.Document, error)
}
