package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragserve/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/ragserve/internal/adapters/driving/watcher"
	"github.com/custodia-labs/ragserve/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Starts the HTTP server exposing the ask and ingest endpoints.
When ingest watching is enabled, files dropped into the ingest
directory are indexed automatically.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	ragService = d.service

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := httpapi.New(ragService, cfg.Ingest.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Ingest.Watch {
		if err := os.MkdirAll(cfg.Ingest.Dir, 0755); err != nil {
			return fmt.Errorf("creating ingest directory: %w", err)
		}
		w, err := watcher.New(ragService, cfg.Ingest.Dir)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Watcher stopped: %v", err)
			}
		}()
		logger.Info("Watching %s for dropped files", cfg.Ingest.Dir)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()
	cmd.Printf("Listening on %s\n", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		cmd.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}
