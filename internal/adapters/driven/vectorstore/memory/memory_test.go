package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

func TestUpsert_RejectsEmptyID(t *testing.T) {
	s := New()

	err := s.Upsert(context.Background(), []driven.VectorRecord{{ID: ""}})

	assert.Error(t, err)
}

func TestUpsert_ReplacesExistingRecord(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{{ID: "a", Text: "old"}}))
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{{ID: "a", Text: "new"}}))

	assert.Equal(t, 1, s.Len())
	matches, err := s.Search(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Record.Text)
}

func TestSearch_RanksByCosineSimilarity(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		{ID: "far", Embedding: []float32{0, 1}},
		{ID: "near", Embedding: []float32{1, 0.1}},
		{ID: "exact", Embedding: []float32{1, 0}},
	}))

	matches, err := s.Search(ctx, []float32{1, 0}, 10, nil)

	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Record.ID)
	assert.Equal(t, "near", matches[1].Record.ID)
	assert.Equal(t, "far", matches[2].Record.ID)
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0}},
		{ID: "c", Embedding: []float32{1, 0}},
	}))

	matches, err := s.Search(ctx, []float32{1, 0}, 2, nil)

	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearch_FiltersByMetadataEquality(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		{ID: "x1", Embedding: []float32{1, 0}, Metadata: map[string]any{"author": "X"}},
		{ID: "x2", Embedding: []float32{1, 0}, Metadata: map[string]any{"author": "X"}},
		{ID: "y1", Embedding: []float32{1, 0}, Metadata: map[string]any{"author": "Y"}},
	}))

	matches, err := s.Search(ctx, []float32{1, 0}, 10, map[string]any{"author": "X"})

	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "X", m.Record.Metadata["author"])
	}
}

func TestSearch_FilterOnMissingFieldExcludes(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		{ID: "a", Embedding: []float32{1}},
	}))

	matches, err := s.Search(ctx, []float32{1}, 10, map[string]any{"author": "X"})

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_NumericTypeDriftStillMatches(t *testing.T) {
	s := New()
	ctx := context.Background()
	// Metadata decoded from JSON carries float64 where callers pass int.
	require.NoError(t, s.Upsert(ctx, []driven.VectorRecord{
		{ID: "a", Embedding: []float32{1}, Metadata: map[string]any{"year": float64(2024)}},
	}))

	matches, err := s.Search(ctx, []float32{1}, 10, map[string]any{"year": 2024})

	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestCosineSimilarity_Basics(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}), "mismatched lengths score zero")
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), "zero vector scores zero")
}
