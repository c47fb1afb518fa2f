package driven

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// InteractionStore persists question/answer pairs for audit.
// This is an optional collaborator: nothing in the ask flow reads the log
// back, and a failed save never aborts the request.
type InteractionStore interface {
	// Save records one interaction together with the IDs of the documents
	// that informed the answer.
	Save(ctx context.Context, question string, answer domain.Answer, docIDs []string) error

	// Close releases resources.
	Close() error
}
