// Package watcher ingests files dropped into a watched directory.
// Each new or rewritten plain text file is fed through the ingestion
// flow without any HTTP round trip.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driving"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// settleDelay gives writers time to finish before a dropped file is
// read. Editors and shells commonly emit several write events per save.
const settleDelay = 500 * time.Millisecond

// Watcher ingests files dropped into a directory.
type Watcher struct {
	svc driving.RAGService
	dir string
	fw  *fsnotify.Watcher

	// pending debounces writes per path; entries are removed when their
	// timer fires so the map stays bounded by in-flight paths.
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. Call Run to start it.
func New(svc driving.RAGService, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		svc:     svc,
		dir:     dir,
		fw:      fw,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule starts or restarts the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

// pendingCount reports the number of paths awaiting their settle delay.
func (w *Watcher) pendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// ingest runs one dropped file through the ingestion flow.
func (w *Watcher) ingest(ctx context.Context, path string) {
	logger.Info("Ingesting dropped file %s", path)
	err := w.svc.Ingest(ctx, path, map[string]any{"source": "watcher"})
	switch {
	case err == nil:
		logger.Info("Ingested %s", path)
	case errors.Is(err, domain.ErrNoDocumentsIngested):
		logger.Warn("Dropped file %s produced no documents", path)
	default:
		logger.Error("Ingesting %s: %v", path, err)
	}
}
