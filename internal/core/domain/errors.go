package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDocumentsIngested indicates the ingestion pipeline produced
	// zero documents. This is fatal to the ingest flow: nothing reaches
	// the vector store.
	ErrNoDocumentsIngested = errors.New("ingestion produced no documents")

	// ErrUnsupportedFileType indicates an upload with a content type the
	// ingestion surface does not accept.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrLLMUnavailable indicates the completion service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)
