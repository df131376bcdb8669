package handlers

import (
	"encoding/json"
	"net/http"

	"pixvault/internal/domain"
)

type cleanupRequest struct {
	WorldID       string `json:"world_id,omitempty"`
	Status        string `json:"status,omitempty"`
	OlderThanDays int    `json:"older_than_days,omitempty"`
	DryRun        *bool  `json:"dry_run,omitempty"`
}

func (a *App) CleanupAssets(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	switch req.Status {
	case "", string(domain.AssetStatusFailed), string(domain.AssetStatusArchived):
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "status must be failed or archived")
		return
	}

	// Destructive unless explicitly applied.
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}
	criteria := domain.CleanupCriteria{
		WorldID:       req.WorldID,
		Status:        domain.AssetStatus(req.Status),
		OlderThanDays: req.OlderThanDays,
		DryRun:        dryRun,
	}
	result, err := a.Service.CleanupAssets(r.Context(), criteria)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	a.json(w, http.StatusOK, result)
}
