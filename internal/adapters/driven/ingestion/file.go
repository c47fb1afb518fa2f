// Package ingestion provides the file-based ingester adapter.
// It loads a file from disk, derives file metadata, merges in
// caller-supplied metadata and runs the transformation pipeline.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driven"
	"github.com/custodia-labs/ragserve/internal/logger"
	"github.com/custodia-labs/ragserve/internal/transform"
)

// Ensure FileIngester implements the interface.
var _ driven.Ingester = (*FileIngester)(nil)

// FileIngester reads files and pushes them through a transform pipeline.
type FileIngester struct {
	pipeline *transform.Pipeline
}

// New creates a file ingester with the given pipeline.
// A pipeline with no stages passes the whole file through as one document.
func New(pipeline *transform.Pipeline) *FileIngester {
	if pipeline == nil {
		pipeline = transform.NewPipeline()
	}
	return &FileIngester{pipeline: pipeline}
}

// Ingest loads the file at path and returns its transformed chunks.
//
// A nonexistent path returns an empty result with a nil error; callers
// decide whether that is a problem. File-derived metadata (file_name,
// file_path, file_size) is set first and caller metadata overrides it on
// key collision, so callers can always pin their own values.
func (f *FileIngester) Ingest(ctx context.Context, path string, metadata map[string]any) ([]domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Ingest path does not exist: %s", path)
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("ingest %s: %w", path, domain.ErrInvalidInput)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	derived := fileMetadata(path, info.Size())
	doc := domain.Document{
		ID:       uuid.New().String(),
		Text:     string(content),
		Metadata: domain.MergeMetadata(derived, metadata),
	}

	docs, err := f.pipeline.Run(ctx, []domain.Document{doc})
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", path, err)
	}

	logger.Debug("Ingested %s: %d chunks", path, len(docs))
	return docs, nil
}

// fileMetadata derives the standard metadata fields for a file.
func fileMetadata(path string, size int64) map[string]any {
	return map[string]any{
		"file_name": filepath.Base(path),
		"file_path": path,
		"file_size": size,
	}
}
