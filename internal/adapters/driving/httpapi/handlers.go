package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/ragserve/internal/core/domain"
	"github.com/custodia-labs/ragserve/internal/logger"
)

// askRequest is the body of POST /api/ask.
type askRequest struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
}

// handleAsk answers a question over the indexed corpus.
func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query must not be empty")
	}

	answer, err := s.svc.Ask(c.Request().Context(), req.Query, req.Filters)
	if err != nil {
		return err
	}
	if answer.Citations == nil {
		answer.Citations = []domain.Citation{}
	}
	return c.JSON(http.StatusOK, answer)
}

// handleIngest accepts a multipart upload, saves it under the ingest
// directory and runs the ingestion flow. Only plain text files are
// accepted.
func (s *Server) handleIngest(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}

	if !isPlainText(fileHeader.Header.Get("Content-Type"), fileHeader.Filename) {
		return fmt.Errorf("%s: %w", fileHeader.Filename, domain.ErrUnsupportedFileType)
	}

	metadata := parseMetadata(c.FormValue("metadata"))

	path, err := s.saveUpload(fileHeader)
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}

	if err := s.svc.Ingest(c.Request().Context(), path, metadata); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ingested",
		"filename": fileHeader.Filename,
	})
}

// saveUpload copies the uploaded file into the ingest directory and
// returns the saved path.
func (s *Server) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.ingestDir, 0755); err != nil {
		return "", fmt.Errorf("creating ingest directory: %w", err)
	}

	name := filepath.Base(fileHeader.Filename)
	path := filepath.Join(s.ingestDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// isPlainText accepts text/plain content types and .txt filenames.
func isPlainText(contentType, filename string) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && mediaType == "text/plain" {
			return true
		}
	}
	return strings.EqualFold(filepath.Ext(filename), ".txt")
}

// parseMetadata decodes the metadata form field as a JSON object.
// Anything that is not a valid JSON object yields an empty map; the
// field is never interpreted beyond strict JSON decoding.
func parseMetadata(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		logger.Warn("Ignoring malformed metadata field: %v", err)
		return map[string]any{}
	}
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
