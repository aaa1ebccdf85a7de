package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nurlanv/cbar-rates/internal/models"
)

// RateGetter defines the interface that the service must implement.
type RateGetter interface {
	GetRate(ctx context.Context, date time.Time, code string) (*models.Currency, error)
}

// CurrencyRateResponse is a single currency record for one date.
// swagger:model CurrencyRateResponse
type CurrencyRateResponse struct {
	// Requested date
	// example: 2025-08-29
	Date string `json:"date"`

	// The matched record
	Currency models.Currency `json:"currency"`
}

// NewGetCurrencyRateHandler returns an HTTP handler serving one currency's
// rate for a date.
// @Summary Get one currency rate
// @Description Returns the rate of a single currency for the given date. Date defaults to today.
// @Tags currencies
// @Produce json
// @Param date query string false "Date in YYYY-MM-DD format" example(2025-08-29)
// @Param currency query string true "Currency code" example(EUR)
// @Success 200 {object} handlers.CurrencyRateResponse "Currency rate"
// @Failure 400 {object} models.ErrorResponse "Invalid or future date, or missing currency"
// @Failure 404 {object} models.ErrorResponse "Currency not found"
// @Failure 502 {object} models.ErrorResponse "Upstream feed unavailable"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /currencies/rate [get]
func NewGetCurrencyRateHandler(svc RateGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("currency")
		if code == "" {
			writeError(w, http.StatusBadRequest, "Missing currency parameter")
			return
		}

		date, err := parseDateParam(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}

		record, err := svc.GetRate(r.Context(), date, code)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := CurrencyRateResponse{
			Date:     date.Format(models.DateLayout),
			Currency: *record,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
