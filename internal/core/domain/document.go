package domain

// Document is a retrievable unit of text: either a chunk produced by the
// ingestion pipeline or a hit materialised from the vector store.
// It is a value type and is never mutated after construction.
type Document struct {
	// ID is the unique identifier for the document.
	// It is stable within a single ingestion or retrieval batch.
	ID string

	// Text is the chunk content.
	Text string

	// Score is the relevance score assigned by retrieval.
	// Zero for documents that have not been through a similarity search.
	Score float64

	// Metadata contains arbitrary key-value pairs. Keys are compared
	// order-independently wherever metadata is used as a filter.
	Metadata map[string]any

	// Embedding is the vector representation, when one has been computed.
	// Nil for freshly ingested documents; the retriever write path fills
	// it in before upserting.
	Embedding []float32
}

// Citation points back into a source document for a span of an answer.
type Citation struct {
	// DocumentID is the ID of the cited document.
	DocumentID string `json:"document_id"`

	// Snippet is the cited text extracted from the document.
	Snippet string `json:"snippet"`
}

// Answer is the result of the generate step.
type Answer struct {
	// Text is the raw model response.
	Text string `json:"text"`

	// Citations is ordered and may be empty. Citation extraction from
	// model output is not implemented yet, so it currently always is.
	Citations []Citation `json:"citations"`
}

// CopyMetadata returns a shallow copy of a metadata map.
// Chunks share metadata with their parent document during splitting;
// copying keeps the immutability contract cheap to honour.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MergeMetadata combines file-derived and caller-supplied metadata.
// Caller keys win on collision.
func MergeMetadata(derived, caller map[string]any) map[string]any {
	merged := make(map[string]any, len(derived)+len(caller))
	for k, v := range derived {
		merged[k] = v
	}
	for k, v := range caller {
		merged[k] = v
	}
	return merged
}
