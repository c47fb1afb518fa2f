package driving

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// RAGService exposes the two request flows of the application core.
type RAGService interface {
	// Ask retrieves documents relevant to the question (optionally
	// narrowed by metadata filters) and generates an answer from them.
	Ask(ctx context.Context, question string, filters map[string]any) (domain.Answer, error)

	// Ingest runs the ingestion pipeline over the file at path and
	// forwards the resulting documents to the vector index.
	// Returns domain.ErrNoDocumentsIngested when the pipeline produces
	// nothing; in that case the index is never touched.
	Ingest(ctx context.Context, path string, metadata map[string]any) error
}
