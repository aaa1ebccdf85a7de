package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nurlanv/cbar-rates/internal/models"
	"github.com/nurlanv/cbar-rates/internal/services"
)

// CacheCleaner defines the interface that the sweeper must implement.
type CacheCleaner interface {
	Cleanup(ctx context.Context, daysToKeep int)
}

// NewCacheCleanupHandler returns an HTTP handler triggering an on-demand
// retention sweep.
// @Summary Trigger cache cleanup
// @Description Deletes cached rate snapshots older than the retention window. Defaults to 30 days.
// @Tags cache
// @Produce json
// @Param daysToKeep query int false "Retention window in days" example(30)
// @Success 200 {object} models.CleanupResponse "Cleanup completed"
// @Failure 400 {object} models.ErrorResponse "Invalid daysToKeep"
// @Router /currencies/cache/cleanup [post]
func NewCacheCleanupHandler(svc CacheCleaner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		daysToKeep := services.DefaultRetentionDays
		if raw := r.URL.Query().Get("daysToKeep"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "daysToKeep must be a positive integer")
				return
			}
			daysToKeep = parsed
		}

		svc.Cleanup(r.Context(), daysToKeep)

		resp := models.CleanupResponse{
			Message:  "Cache cleanup completed",
			DaysKept: daysToKeep,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
