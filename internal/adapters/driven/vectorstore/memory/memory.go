// Package memory provides an in-memory VectorStore with cosine
// similarity and equality metadata filtering. It backs tests and
// configurations that run without an external vector database.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps all records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]driven.VectorRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]driven.VectorRecord),
	}
}

// Upsert stores or replaces the given records.
func (s *Store) Upsert(_ context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("upsert: record without ID")
		}
		s.records[rec.ID] = rec
	}
	return nil
}

// Search ranks matching records by cosine similarity to the query
// embedding, descending, and returns at most topK of them.
func (s *Store) Search(_ context.Context, embedding []float32, topK int, filters map[string]any) ([]driven.VectorMatch, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]driven.VectorMatch, 0, len(s.records))
	for _, rec := range s.records {
		if !matchFilters(rec.Metadata, filters) {
			continue
		}
		matches = append(matches, driven.VectorMatch{
			Record: rec,
			Score:  cosineSimilarity(embedding, rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Record.ID < matches[j].Record.ID
		}
		return matches[i].Score > matches[j].Score
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matchFilters checks per-field equality between record metadata and the
// filter map. Values are compared by their string rendering, which keeps
// TOML/JSON numeric type drift from breaking equality.
func matchFilters(metadata, filters map[string]any) bool {
	if len(filters) == 0 {
		return true
	}
	for key, expected := range filters {
		value, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprint(value) != fmt.Sprint(expected) {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
