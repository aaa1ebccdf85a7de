package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// SnapshotChecker reads snapshot presence from the durable store. The hot
// cache is deliberately not consulted: status reflects what survives a
// restart.
type SnapshotChecker interface {
	Exists(ctx context.Context, date time.Time) (bool, error)
	GetByDate(ctx context.Context, date time.Time) ([]models.Currency, error)
}

// NewGetCacheStatusHandler returns an HTTP handler reporting whether a date's
// snapshot is cached, without triggering a fetch.
// @Summary Get cache status for a date
// @Description Reports whether rates for the given date are already cached. Never contacts the central bank. Date defaults to today.
// @Tags cache
// @Produce json
// @Param date query string false "Date in YYYY-MM-DD format" example(2025-08-29)
// @Success 200 {object} models.CacheStatusResponse "Cache status"
// @Failure 400 {object} models.ErrorResponse "Invalid date"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /currencies/cache/status [get]
func NewGetCacheStatusHandler(reader SnapshotChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}

		exists, err := reader.Exists(r.Context(), date)
		if err != nil {
			logger.Log.Errorw("cache status check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := models.CacheStatusResponse{
			Date:        date.Format(models.DateLayout),
			IsCached:    exists,
			CacheSource: "database",
		}

		if exists {
			records, err := reader.GetByDate(r.Context(), date)
			if err != nil {
				logger.Log.Errorw("cache status count failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			count := len(records)
			resp.CachedCount = &count
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
