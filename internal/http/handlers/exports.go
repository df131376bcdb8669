package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pixvault/internal/domain"
)

func (a *App) ExportAssets(w http.ResponseWriter, r *http.Request) {
	var req domain.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Normalize(time.Now())
	if err := req.Validate(); err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			a.serviceError(w, err)
		} else {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		}
		return
	}

	// Headers are staged before streaming; until the first archive byte is
	// written they can still be replaced by a JSON error response.
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.ZipName))

	sink := &countingWriter{w: w}
	report, err := a.Service.ExportAssets(r.Context(), req, sink)
	if err != nil {
		if sink.written == 0 {
			w.Header().Del("Content-Disposition")
			a.serviceError(w, err)
			return
		}
		// Mid-stream failure: the client holds a truncated archive and must
		// treat the download as failed. Nothing recoverable remains.
		a.Logger.Error().Err(err).Msg("export: stream aborted")
		return
	}
	a.Logger.Info().
		Int("exported", len(report.Exported)).
		Int("skipped", len(report.Skipped)).
		Msg("export: stream complete")
}

type previewRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

func (a *App) ExportPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	preview, err := a.Service.GetExportPreview(r.Context(), req.AssetIDs)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, preview)
}

type countingWriter struct {
	w       http.ResponseWriter
	written int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.written += int64(n)
	return n, err
}
