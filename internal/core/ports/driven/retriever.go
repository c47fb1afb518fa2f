package driven

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// DocumentRetriever wraps a vector index behind a read path and a write path.
//
// The read path resolves a filter mapping to a retrieval handle bound to
// exactly those filters. Handles are cached by canonical filter identity, so
// two structurally equal filter maps share one handle regardless of key
// insertion order.
type DocumentRetriever interface {
	// Retrieve returns documents relevant to the query, ordered by
	// descending score and truncated to the configured top-k.
	// A nil or empty filter map uses the default unfiltered handle.
	Retrieve(ctx context.Context, query string, filters map[string]any) ([]domain.Document, error)

	// Ingest embeds (where needed) and upserts a batch of documents into
	// the vector index. An empty batch is a no-op. The batch is not
	// written atomically; a mid-batch failure can leave a partial write.
	Ingest(ctx context.Context, docs []domain.Document) error
}
