// Package generator provides the LLM-backed answer generator.
// It formats the question and retrieved documents into a single prompt
// and dispatches one non-streaming completion call.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// DefaultMaxTokens caps the completion length.
const DefaultMaxTokens = 1024

// Ensure Generator implements the interface.
var _ driven.AnswerGenerator = (*Generator)(nil)

const ragPrompt = `Answer the question using only the context below.
If the context does not contain the answer, say so.

Context:
%s

Question: %s
Answer:`

// Generator wraps an LLMService behind the AnswerGenerator port.
type Generator struct {
	llm       driven.LLMService
	maxTokens int
}

// Option configures the generator.
type Option func(*Generator)

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// New creates a generator backed by the given LLM service.
func New(llm driven.LLMService, opts ...Option) *Generator {
	g := &Generator{
		llm:       llm,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the documents as a numbered context block, in the
// order given, and wraps the completion response in an Answer.
//
// Citations are always empty: extracting citation spans from the model
// output is a deferred feature, and the empty list is the documented
// contract until it lands.
func (g *Generator) Generate(ctx context.Context, question string, docs []domain.Document) (domain.Answer, error) {
	if g.llm == nil {
		return domain.Answer{}, domain.ErrLLMUnavailable
	}

	prompt := buildPrompt(question, docs)
	logger.Debug("Generate: %d context documents, model=%s", len(docs), g.llm.ModelName())

	text, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("completion: %w", err)
	}

	return domain.Answer{
		Text:      text,
		Citations: []domain.Citation{},
	}, nil
}

// buildPrompt renders each document as "Document N: <text>" preserving
// retrieval order, then slots context and question into the template.
func buildPrompt(question string, docs []domain.Document) string {
	var context strings.Builder
	for i, doc := range docs {
		if i > 0 {
			context.WriteByte('\n')
		}
		fmt.Fprintf(&context, "Document %d: %s", i+1, doc.Text)
	}
	return fmt.Sprintf(ragPrompt, context.String(), question)
}
