package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"pixvault/internal/domain"
	"pixvault/internal/export"
)

// ExportService is the pipeline surface the HTTP layer depends on.
type ExportService interface {
	ExportAssets(ctx context.Context, req domain.ExportRequest, sink io.Writer) (*export.Report, error)
	GetAssetFile(ctx context.Context, id string, format domain.ExportFormat, quality int) (*export.AssetFile, error)
	GetExportPreview(ctx context.Context, ids []string) (*domain.ExportPreview, error)
	CleanupAssets(ctx context.Context, criteria domain.CleanupCriteria) (*domain.CleanupResult, error)
}

type App struct {
	Service ExportService
	Logger  zerolog.Logger
}

func NewApp(svc ExportService, logger zerolog.Logger) *App {
	return &App{Service: svc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": errCode, "message": message})
}

// serviceError maps pipeline errors onto HTTP statuses. Validation-class
// errors are detected before any stream bytes are written.
func (a *App) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrEmptyResult):
		a.error(w, http.StatusNotFound, "empty_result", "no assets resolved")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		a.error(w, http.StatusBadRequest, "unsupported_format", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "operation failed")
	}
}
