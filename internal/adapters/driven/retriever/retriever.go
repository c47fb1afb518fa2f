// Package retriever provides the vector-store-backed document retriever.
// It owns the filter-keyed cache of retrieval handles and the index
// write path.
package retriever

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// DefaultTopK is the default number of results per retrieval.
const DefaultTopK = 8

// DefaultCacheCapacity bounds the filter handle cache.
const DefaultCacheCapacity = 256

// Ensure Retriever implements the interface.
var _ driven.DocumentRetriever = (*Retriever)(nil)

// handle is a retrieval handle bound to one exact filter configuration.
// Binding copies and canonicalises the filters once, so per-request
// retrieval only executes the search.
type handle struct {
	key     string
	filters map[string]any
}

// Retriever implements similarity retrieval with metadata filtering on
// top of a VectorStore, embedding queries via an EmbeddingService.
type Retriever struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	topK     int

	// def is the unfiltered handle bound at construction time.
	def   *handle
	cache *handleCache

	// constructed counts handle constructions; read by tests.
	constructed atomicCounter
}

// Option configures the retriever.
type Option func(*Retriever)

// WithTopK sets the maximum number of results per retrieval.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithCacheCapacity sets the filter handle cache bound.
func WithCacheCapacity(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.cache = newHandleCache(n)
		}
	}
}

// New creates a retriever over the given store and embedder.
func New(store driven.VectorStore, embedder driven.EmbeddingService, opts ...Option) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		topK:     DefaultTopK,
		def:      &handle{},
		cache:    newHandleCache(DefaultCacheCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query and searches the store through the handle
// bound to the given filters. Results come back ordered by descending
// score, truncated to top-k by the store.
func (r *Retriever) Retrieve(ctx context.Context, query string, filters map[string]any) ([]domain.Document, error) {
	h := r.handleFor(filters)
	logger.Debug("Retrieve: query=%q handle=%q", query, h.key)

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.store.Search(ctx, embedding, r.topK, h.filters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]domain.Document, len(matches))
	for i, m := range matches {
		docs[i] = domain.Document{
			ID:        m.Record.ID,
			Text:      m.Record.Text,
			Score:     m.Score,
			Metadata:  m.Record.Metadata,
			Embedding: m.Record.Embedding,
		}
	}
	return docs, nil
}

// Ingest embeds documents that lack embeddings and upserts the batch.
// An empty batch is a no-op.
func (r *Retriever) Ingest(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	records := make([]driven.VectorRecord, len(docs))
	var missing []int
	var texts []string
	for i, doc := range docs {
		records[i] = driven.VectorRecord{
			ID:        doc.ID,
			Embedding: doc.Embedding,
			Text:      doc.Text,
			Metadata:  doc.Metadata,
		}
		if len(doc.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, doc.Text)
		}
	}

	if len(missing) > 0 {
		embeddings, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(embeddings) != len(missing) {
			return fmt.Errorf("embed batch: got %d embeddings for %d texts", len(embeddings), len(missing))
		}
		for j, i := range missing {
			records[i].Embedding = embeddings[j]
		}
	}

	if err := r.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	logger.Info("Indexed %d documents", len(records))
	return nil
}

// handleFor resolves the retrieval handle for a filter mapping.
// Empty filters use the default handle; anything else goes through the
// LRU cache keyed by canonical filter identity. Two concurrent misses for
// the same key may both construct, but only one handle survives.
func (r *Retriever) handleFor(filters map[string]any) *handle {
	if len(filters) == 0 {
		return r.def
	}

	key := CanonicalKey(filters)
	if h, ok := r.cache.get(key); ok {
		return h
	}

	h := r.newHandle(key, filters)
	return r.cache.put(key, h)
}

// newHandle binds a handle to a copy of the filters.
func (r *Retriever) newHandle(key string, filters map[string]any) *handle {
	r.constructed.inc()
	return &handle{
		key:     key,
		filters: domain.CopyMetadata(filters),
	}
}
