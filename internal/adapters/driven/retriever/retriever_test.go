package retriever

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu        sync.Mutex
	matches   []driven.VectorMatch
	searchErr error
	upsertErr error

	upserted    []driven.VectorRecord
	lastTopK    int
	lastFilters map[string]any
}

func (m *mockVectorStore) Upsert(_ context.Context, records []driven.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, records...)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, topK int, filters map[string]any) ([]driven.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTopK = topK
	m.lastFilters = filters
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.matches, nil
}

func (m *mockVectorStore) Close() error {
	return nil
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	batchErr  error

	mu         sync.Mutex
	batchTexts []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.batchTexts = texts
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.embedding) }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func newTestRetriever(opts ...Option) (*Retriever, *mockVectorStore, *mockEmbedder) {
	store := &mockVectorStore{}
	embedder := &mockEmbedder{embedding: []float32{0.1, 0.2}}
	return New(store, embedder, opts...), store, embedder
}

// --- Tests ---

func TestRetrieve_MapsMatchesToDocuments(t *testing.T) {
	r, store, _ := newTestRetriever()
	store.matches = []driven.VectorMatch{
		{Record: driven.VectorRecord{ID: "a", Text: "alpha", Metadata: map[string]any{"topic": "ai"}}, Score: 0.9},
		{Record: driven.VectorRecord{ID: "b", Text: "beta"}, Score: 0.4},
	}

	docs, err := r.Retrieve(context.Background(), "query", nil)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, 0.9, docs[0].Score)
	assert.Equal(t, map[string]any{"topic": "ai"}, docs[0].Metadata)
	assert.Equal(t, "b", docs[1].ID)
}

func TestRetrieve_UsesConfiguredTopK(t *testing.T) {
	r, store, _ := newTestRetriever(WithTopK(3))

	_, err := r.Retrieve(context.Background(), "query", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, store.lastTopK)
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	r, store, _ := newTestRetriever()

	_, err := r.Retrieve(context.Background(), "query", nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.lastTopK)
}

func TestRetrieve_PassesFiltersToStore(t *testing.T) {
	r, store, _ := newTestRetriever()

	_, err := r.Retrieve(context.Background(), "query", map[string]any{"author": "smith"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"author": "smith"}, store.lastFilters)
}

func TestRetrieve_EmbedErrorPropagates(t *testing.T) {
	store := &mockVectorStore{}
	embedErr := errors.New("embedding down")
	r := New(store, &mockEmbedder{embedErr: embedErr})

	_, err := r.Retrieve(context.Background(), "query", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, embedErr)
}

func TestHandleFor_EmptyFiltersUseDefaultHandle(t *testing.T) {
	r, _, _ := newTestRetriever()

	h1 := r.handleFor(nil)
	h2 := r.handleFor(map[string]any{})

	assert.Same(t, r.def, h1)
	assert.Same(t, r.def, h2)
	assert.EqualValues(t, 0, r.constructed.value(), "default handle is bound at construction")
}

func TestHandleFor_SameFiltersDifferentOrderShareHandle(t *testing.T) {
	r, _, _ := newTestRetriever()

	h1 := r.handleFor(map[string]any{"topic": "ai", "year": 2024})
	h2 := r.handleFor(map[string]any{"year": 2024, "topic": "ai"})

	assert.Same(t, h1, h2)
	assert.EqualValues(t, 1, r.constructed.value(), "second lookup must hit the cache")
}

func TestHandleFor_DistinctFiltersGetDistinctHandles(t *testing.T) {
	r, _, _ := newTestRetriever()

	h1 := r.handleFor(map[string]any{"topic": "ai"})
	h2 := r.handleFor(map[string]any{"topic": "ml"})

	assert.NotSame(t, h1, h2)
	assert.EqualValues(t, 2, r.constructed.value())
}

func TestHandleFor_EvictionForcesReconstruction(t *testing.T) {
	r, _, _ := newTestRetriever(WithCacheCapacity(1))

	r.handleFor(map[string]any{"topic": "ai"})
	r.handleFor(map[string]any{"topic": "ml"})
	r.handleFor(map[string]any{"topic": "ai"})

	assert.EqualValues(t, 3, r.constructed.value(), "evicted handle must be rebuilt")
}

func TestHandleFor_CopiesFilters(t *testing.T) {
	r, store, _ := newTestRetriever()
	filters := map[string]any{"topic": "ai"}

	h := r.handleFor(filters)
	filters["topic"] = "mutated"

	assert.Equal(t, "ai", h.filters["topic"], "handle must not see caller mutations")

	_, err := r.Retrieve(context.Background(), "q", map[string]any{"topic": "ai"})
	require.NoError(t, err)
	assert.Equal(t, "ai", store.lastFilters["topic"])
}

func TestHandleFor_ConcurrentLookupsAgree(t *testing.T) {
	r, _, _ := newTestRetriever()

	const workers = 16
	handles := make([]*handle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = r.handleFor(map[string]any{"year": 2024, "topic": "ai"})
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, handles[0], handles[i], "all goroutines must converge on one handle")
	}
	assert.Equal(t, 1, r.cache.len())
}

func TestIngest_EmptyBatchIsNoOp(t *testing.T) {
	r, store, _ := newTestRetriever()

	err := r.Ingest(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, store.upserted)
}

func TestIngest_EmbedsOnlyMissingEmbeddings(t *testing.T) {
	r, store, embedder := newTestRetriever()
	docs := []domain.Document{
		{ID: "a", Text: "has one", Embedding: []float32{1, 2}},
		{ID: "b", Text: "needs one"},
	}

	err := r.Ingest(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, []string{"needs one"}, embedder.batchTexts)
	require.Len(t, store.upserted, 2)
	assert.Equal(t, []float32{1, 2}, store.upserted[0].Embedding)
	assert.Equal(t, []float32{0.1, 0.2}, store.upserted[1].Embedding)
}

func TestIngest_BatchErrorPropagates(t *testing.T) {
	store := &mockVectorStore{}
	batchErr := errors.New("quota exceeded")
	r := New(store, &mockEmbedder{batchErr: batchErr})

	err := r.Ingest(context.Background(), []domain.Document{{ID: "a", Text: "t"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, batchErr)
	assert.Empty(t, store.upserted)
}
