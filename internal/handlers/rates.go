package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nurlanv/cbar-rates/internal/facades"
	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
	"github.com/nurlanv/cbar-rates/internal/services"
)

// RatesLister defines the interface that the service must implement.
type RatesLister interface {
	GetRates(ctx context.Context, date time.Time) ([]models.Currency, error)
}

// CurrenciesResponse is the full record set for one date.
// swagger:model CurrenciesResponse
type CurrenciesResponse struct {
	// Requested date
	// example: 2025-08-29
	Date string `json:"date"`

	// Normalized currency records
	Currencies []models.Currency `json:"currencies"`
}

// NewGetCurrenciesHandler returns an HTTP handler serving the full rate set
// for a date.
// @Summary Get currency rates for a date
// @Description Returns all currency rates for the given date, fetching from the central bank on a cache miss. Date defaults to today.
// @Tags currencies
// @Produce json
// @Param date query string false "Date in YYYY-MM-DD format" example(2025-08-29)
// @Success 200 {object} handlers.CurrenciesResponse "Currency rates"
// @Failure 400 {object} models.ErrorResponse "Invalid or future date"
// @Failure 502 {object} models.ErrorResponse "Upstream feed unavailable"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /currencies [get]
func NewGetCurrenciesHandler(svc RatesLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}

		records, err := svc.GetRates(r.Context(), date)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := CurrenciesResponse{
			Date:       date.Format(models.DateLayout),
			Currencies: records,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}

// parseDateParam parses a YYYY-MM-DD query value, defaulting to today.
func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(models.DateLayout, raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}

// writeServiceError maps rate pipeline errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrFutureDate):
		writeError(w, http.StatusBadRequest, "Date must not be in the future")
	case errors.Is(err, services.ErrCurrencyNotFound):
		writeError(w, http.StatusNotFound, "Currency not found for the requested date")
	case errors.Is(err, facades.ErrUpstreamUnavailable), errors.Is(err, facades.ErrMalformedFeed):
		logger.Log.Errorw("upstream feed failure", "error", err)
		writeError(w, http.StatusBadGateway, "Central bank feed unavailable")
	default:
		logger.Log.Errorw("rate lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
