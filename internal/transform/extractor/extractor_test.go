package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response  string
	err       error
	callCount int

	lastPrompt string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.callCount++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func TestTransform_SetsTitle(t *testing.T) {
	llm := &mockLLM{response: "  A Title \n"}
	stage := New(llm)

	out, err := stage.Transform(context.Background(), []domain.Document{
		{ID: "a", Text: "some chunk text"},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A Title", out[0].Metadata[MetadataTitleKey], "title is trimmed")
}

func TestTransform_SkipsAlreadyTitledDocuments(t *testing.T) {
	llm := &mockLLM{response: "ignored"}
	stage := New(llm)

	out, err := stage.Transform(context.Background(), []domain.Document{
		{Text: "text", Metadata: map[string]any{MetadataTitleKey: "existing"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "existing", out[0].Metadata[MetadataTitleKey])
	assert.Zero(t, llm.callCount)
}

func TestTransform_DoesNotMutateInputMetadata(t *testing.T) {
	stage := New(&mockLLM{response: "title"})
	in := []domain.Document{
		{Text: "text", Metadata: map[string]any{"topic": "ai"}},
	}

	out, err := stage.Transform(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "title", out[0].Metadata[MetadataTitleKey])
	_, ok := in[0].Metadata[MetadataTitleKey]
	assert.False(t, ok, "input metadata must stay untouched")
}

func TestTransform_NilLLM(t *testing.T) {
	stage := New(nil)

	_, err := stage.Transform(context.Background(), []domain.Document{{Text: "t"}})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestTransform_SampleTruncationKeepsValidUTF8(t *testing.T) {
	llm := &mockLLM{response: "title"}
	stage := New(llm)
	// A multi-byte rune straddles the sample byte limit.
	text := strings.Repeat("a", maxSampleLength-1) + strings.Repeat("日本語", 50)

	_, err := stage.Transform(context.Background(), []domain.Document{{Text: text}})

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(llm.lastPrompt), "prompt must never carry a split rune")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "ab", truncateRunes("abcd", 2))

	// 3-byte runes: a cut mid-rune backs up to the previous boundary.
	s := "日本語"
	got := truncateRunes(s, 4)
	assert.Equal(t, "日", got)
	assert.True(t, utf8.ValidString(got))
}

func TestTransform_LLMErrorPropagates(t *testing.T) {
	llmErr := errors.New("overloaded")
	stage := New(&mockLLM{err: llmErr})

	_, err := stage.Transform(context.Background(), []domain.Document{{Text: "t"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, llmErr)
}
