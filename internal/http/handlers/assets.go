package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pixvault/internal/domain"
)

func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset id required")
		return
	}
	format := domain.ExportFormat(r.URL.Query().Get("format"))
	quality, _ := strconv.Atoi(r.URL.Query().Get("quality"))

	file, err := a.Service.GetAssetFile(r.Context(), assetID, format, quality)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
