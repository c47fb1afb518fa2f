// Package extractor provides an LLM-backed metadata enrichment stage.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// MetadataTitleKey is the metadata field the extractor populates.
const MetadataTitleKey = "title"

// maxSampleLength limits how much chunk text goes into the prompt.
const maxSampleLength = 1000

// Ensure Stage implements the interface.
var _ driven.Transformer = (*Stage)(nil)

const titlePrompt = `Give a short descriptive title for the following text.
Return ONLY the title, nothing else.

Text:
%s

Title:`

// Stage asks an LLM for a short title per chunk and stores it in the
// chunk metadata. Chunks that already carry a title are left alone.
type Stage struct {
	llm driven.LLMService
}

// New creates a new extractor stage backed by the given LLM service.
func New(llm driven.LLMService) *Stage {
	return &Stage{llm: llm}
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return "extractor"
}

// Transform annotates each document with an extracted title.
// The documents themselves are returned as modified copies; text and IDs
// are untouched.
func (s *Stage) Transform(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	out := make([]domain.Document, len(docs))
	for i := range docs {
		doc := docs[i]
		doc.Metadata = domain.CopyMetadata(doc.Metadata)
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}

		if _, ok := doc.Metadata[MetadataTitleKey]; !ok {
			title, err := s.extractTitle(ctx, doc.Text)
			if err != nil {
				return nil, fmt.Errorf("extract title: %w", err)
			}
			doc.Metadata[MetadataTitleKey] = title
		}

		out[i] = doc
	}
	return out, nil
}

// extractTitle runs one completion over a bounded sample of the text.
func (s *Stage) extractTitle(ctx context.Context, text string) (string, error) {
	sample := truncateRunes(text, maxSampleLength)

	result, err := s.llm.Generate(ctx, fmt.Sprintf(titlePrompt, sample), driven.GenerateOptions{
		MaxTokens:   30,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
