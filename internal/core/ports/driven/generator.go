package driven

import (
	"context"

	"github.com/custodia-labs/ragserve/internal/core/domain"
)

// AnswerGenerator turns a question plus retrieved context into an answer.
type AnswerGenerator interface {
	// Generate builds a single prompt from the question and the documents
	// (in the order given - order carries relevance) and dispatches one
	// non-streaming completion call.
	//
	// The returned Answer currently always has empty Citations: extraction
	// of citation spans from model output is a deferred feature, not a bug.
	Generate(ctx context.Context, question string, docs []domain.Document) (domain.Answer, error)
}
