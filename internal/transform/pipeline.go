// Package transform provides the ingestion transformation pipeline.
// A pipeline is an ordered list of stages (splitting, metadata
// extraction) that turns whole-file documents into indexable chunks.
package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
)

// Pipeline chains multiple Transformers and runs them in order.
type Pipeline struct {
	stages []driven.Transformer
}

// NewPipeline creates a new pipeline with the given stages.
// Stages are executed in the order provided.
func NewPipeline(stages ...driven.Transformer) *Pipeline {
	return &Pipeline{
		stages: stages,
	}
}

// Run passes the documents through all stages in order and returns the
// final batch. Documents whose text ends up empty are dropped: the
// pipeline never hands an empty chunk to the index.
func (p *Pipeline) Run(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	for _, stage := range p.stages {
		var err error
		docs, err = stage.Transform(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}

	out := docs[:0:0]
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// Add appends a stage to the pipeline.
func (p *Pipeline) Add(stage driven.Transformer) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
