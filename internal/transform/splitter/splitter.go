// Package splitter provides a sentence-aware text splitting stage.
package splitter

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1200

// Ensure Stage implements the interface.
var _ driven.Transformer = (*Stage)(nil)

// Stage splits document text into sentence-aligned chunks.
// Sentences are packed greedily until the character budget (or the
// optional sentence budget) is reached; a sentence never straddles two
// chunks.
type Stage struct {
	chunkSize    int
	maxSentences int
}

// Option configures the splitter stage.
type Option func(*Stage)

// WithChunkSize sets the chunk size budget in characters.
func WithChunkSize(size int) Option {
	return func(s *Stage) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithMaxSentences caps the number of sentences per chunk.
// Zero means no cap.
func WithMaxSentences(n int) Option {
	return func(s *Stage) {
		if n >= 0 {
			s.maxSentences = n
		}
	}
}

// New creates a new splitter stage with the given options.
func New(opts ...Option) *Stage {
	s := &Stage{
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return "splitter"
}

// Transform splits each incoming document into chunk documents.
// Chunk metadata is a copy of the parent metadata; chunk IDs are fresh
// and unique within the batch. Documents with no sentences produce no
// chunks.
func (s *Stage) Transform(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	var out []domain.Document
	for i := range docs {
		out = append(out, s.split(&docs[i])...)
	}
	return out, nil
}

// split chunks a single document.
func (s *Stage) split(doc *domain.Document) []domain.Document {
	sentences := splitSentences(doc.Text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []domain.Document
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Document{
			ID:       uuid.New().String(),
			Text:     strings.Join(current, " "),
			Metadata: domain.CopyMetadata(doc.Metadata),
		})
		current = nil
		currentLen = 0
	}

	for _, sentence := range sentences {
		overBudget := currentLen > 0 && currentLen+len(sentence)+1 > s.chunkSize
		overCount := s.maxSentences > 0 && len(current) >= s.maxSentences
		if overBudget || overCount {
			flush()
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}
	flush()

	return chunks
}

// splitSentences splits content into sentences by common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	// Don't forget the last sentence
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
