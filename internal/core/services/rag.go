package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/core/ports/driving"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// RAGService sequences the two request flows: retrieve-then-generate for
// questions, and pipeline-then-index for ingestion. It holds no mutable
// state beyond its collaborators, all injected at construction and fixed
// for the service's lifetime.
type RAGService struct {
	ingester     driven.Ingester
	retriever    driven.DocumentRetriever
	generator    driven.AnswerGenerator
	interactions driven.InteractionStore
}

// NewRAGService creates a new orchestration service.
// The interactions parameter is optional (can be nil); when present, every
// answered question is logged to it on a best-effort basis.
func NewRAGService(
	ingester driven.Ingester,
	retriever driven.DocumentRetriever,
	generator driven.AnswerGenerator,
	interactions driven.InteractionStore,
) *RAGService {
	return &RAGService{
		ingester:     ingester,
		retriever:    retriever,
		generator:    generator,
		interactions: interactions,
	}
}

// Ask answers a question from retrieved context.
// Retrieval must complete before generation begins; there is no fan-out
// within a single call. Collaborator failures propagate unwrapped in
// meaning - this service adds context but never translates them.
func (s *RAGService) Ask(ctx context.Context, question string, filters map[string]any) (domain.Answer, error) {
	logger.Debug("Ask: question=%q filters=%v", question, filters)

	docs, err := s.retriever.Retrieve(ctx, question, filters)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	logger.Info("Retrieved %d documents", len(docs))

	answer, err := s.generator.Generate(ctx, question, docs)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate: %w", err)
	}

	s.logInteraction(ctx, question, answer, docs)

	return answer, nil
}

// Ingest runs the ingestion pipeline and forwards the result to the index.
// An empty pipeline result is a hard stop: the write path is never invoked
// and the caller gets domain.ErrNoDocumentsIngested.
func (s *RAGService) Ingest(ctx context.Context, path string, metadata map[string]any) error {
	logger.Debug("Ingest: path=%q metadata=%v", path, metadata)

	docs, err := s.ingester.Ingest(ctx, path, metadata)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	if len(docs) == 0 {
		logger.Warn("Ingestion produced no documents for %s", path)
		return fmt.Errorf("ingest %s: %w", path, domain.ErrNoDocumentsIngested)
	}
	logger.Info("Ingested %d documents from %s", len(docs), path)

	if err := s.retriever.Ingest(ctx, docs); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}

	return nil
}

// logInteraction saves the interaction fire-and-forget. The store is
// optional and its failures must not abort the ask flow.
func (s *RAGService) logInteraction(ctx context.Context, question string, answer domain.Answer, docs []domain.Document) {
	if s.interactions == nil {
		return
	}

	docIDs := make([]string, len(docs))
	for i := range docs {
		docIDs[i] = docs[i].ID
	}

	if err := s.interactions.Save(ctx, question, answer, docIDs); err != nil {
		logger.Warn("Interaction save failed: %v", err)
	}
}
