package driven

import "context"

// VectorRecord is the store-native representation of a document: text,
// metadata payload and embedding travel together.
type VectorRecord struct {
	// ID identifies the record; upserting an existing ID replaces it.
	ID string

	// Embedding is the vector. Required on upsert.
	Embedding []float32

	// Text is the chunk content, stored as payload for hydration.
	Text string

	// Metadata is the payload used for filtered search.
	Metadata map[string]any
}

// VectorMatch is a similarity search hit.
type VectorMatch struct {
	// Record is the matched record with payload.
	Record VectorRecord

	// Score is the similarity score, higher is more relevant.
	Score float64
}

// VectorStore provides vector persistence and filtered similarity search.
// Must support at least per-field equality matching on metadata.
type VectorStore interface {
	// Upsert inserts or replaces a batch of records. The batch is not
	// atomic; partial writes on failure are possible.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Search returns the topK nearest records to the query embedding,
	// restricted to records whose metadata matches every filter entry.
	// A nil or empty filter map matches everything.
	Search(ctx context.Context, embedding []float32, topK int, filters map[string]any) ([]VectorMatch, error)

	// Close releases resources.
	Close() error
}
