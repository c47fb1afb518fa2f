package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := New(Config{
		URL:        server.URL,
		APIKey:     "secret",
		Collection: "rag_collection",
	})
	require.NoError(t, err)
	return store
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Collection: "c"})
	assert.Error(t, err)

	_, err = New(Config{URL: "http://localhost:6333"})
	assert.Error(t, err)
}

func TestInit_CreatesCollection(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	err := store.Init(context.Background(), 1536)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/collections/rag_collection", gotPath)
	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestUpsert_RequestShape(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	var gotBody map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("api-key")
		gotBody = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	err := store.Upsert(context.Background(), []driven.VectorRecord{
		{
			ID:        "doc-1",
			Embedding: []float32{0.1, 0.2},
			Text:      "chunk text",
			Metadata:  map[string]any{"topic": "ai"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "/collections/rag_collection/points", gotPath)
	assert.Equal(t, "wait=true", gotQuery)
	assert.Equal(t, "secret", gotAPIKey)

	points := gotBody["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	assert.Equal(t, "doc-1", point["id"])
	payload := point["payload"].(map[string]any)
	assert.Equal(t, "chunk text", payload["text"])
	metadata := payload["metadata"].(map[string]any)
	assert.Equal(t, "ai", metadata["topic"])
}

func TestUpsert_EmptyBatchSkipsRequest(t *testing.T) {
	called := false
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	err := store.Upsert(context.Background(), nil)

	require.NoError(t, err)
	assert.False(t, called)
}

func TestSearch_FiltersBecomeMustConditions(t *testing.T) {
	var gotBody map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	})

	_, err := store.Search(context.Background(), []float32{0.5}, 8, map[string]any{"author": "smith"})

	require.NoError(t, err)
	assert.Equal(t, float64(8), gotBody["limit"])
	assert.Equal(t, true, gotBody["with_payload"])

	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "metadata.author", cond["key"])
	match := cond["match"].(map[string]any)
	assert.Equal(t, "smith", match["value"])
}

func TestSearch_NoFiltersOmitsFilterClause(t *testing.T) {
	var gotBody map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	})

	_, err := store.Search(context.Background(), []float32{0.5}, 8, nil)

	require.NoError(t, err)
	_, hasFilter := gotBody["filter"]
	assert.False(t, hasFilter)
}

func TestSearch_HydratesMatchesFromPayload(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"id":    "doc-1",
					"score": 0.93,
					"payload": map[string]any{
						"text":     "alpha",
						"metadata": map[string]any{"topic": "ai"},
					},
				},
				{
					"id":    "doc-2",
					"score": 0.41,
					"payload": map[string]any{
						"text": "beta",
					},
				},
			},
		})
	})

	matches, err := store.Search(context.Background(), []float32{0.5}, 8, nil)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc-1", matches[0].Record.ID)
	assert.Equal(t, "alpha", matches[0].Record.Text)
	assert.Equal(t, 0.93, matches[0].Score)
	assert.Equal(t, map[string]any{"topic": "ai"}, matches[0].Record.Metadata)
	assert.Equal(t, "doc-2", matches[1].Record.ID)
	assert.Nil(t, matches[1].Record.Metadata)
}

func TestDoJSON_ErrorIncludesBodySample(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error":"bad vector size"}}`))
	})

	err := store.Init(context.Background(), 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad vector size")
}
