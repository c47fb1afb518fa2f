// Package httpapi provides the inbound HTTP surface.
// It is a thin request/response mapping over the RAG service: two
// operations (ask a question, upload a file for ingestion) plus a
// health check.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/core/ports/driving"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// Server wraps an echo instance bound to a RAG service.
type Server struct {
	svc       driving.RAGService
	ingestDir string
	echo      *echo.Echo
}

// New creates the HTTP server. Uploads are saved under ingestDir before
// they enter the ingest flow.
func New(svc driving.RAGService, ingestDir string) *Server {
	s := &Server{
		svc:       svc,
		ingestDir: ingestDir,
		echo:      echo.New(),
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.HTTPErrorHandler = s.errorHandler

	s.echo.GET("/healthz", s.handleHealth)
	api := s.echo.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.POST("/ingest", s.handleIngest)

	return s
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// errorHandler maps domain errors to status codes and renders a uniform
// JSON error body.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if httpErr.Message != nil {
			msg = fmt.Sprint(httpErr.Message)
		}
	case errors.Is(err, domain.ErrNoDocumentsIngested):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnsupportedFileType):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		code = http.StatusBadRequest
	}

	req := c.Request()
	logger.Warn("HTTP %d %s %s: %v", code, req.Method, req.URL.Path, err)

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
