package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurlanv/cbar-rates/internal/models"
	"github.com/nurlanv/cbar-rates/internal/services"
)

// Converter defines the interface that the conversion service must implement.
type Converter interface {
	ToManat(ctx context.Context, date time.Time, code string, amount decimal.Decimal) (decimal.Decimal, error)
	FromManat(ctx context.Context, date time.Time, code string, amount decimal.Decimal) (decimal.Decimal, error)
}

// NewConvertToManatHandler returns an HTTP handler converting a foreign
// amount into manat at the day's rate.
// @Summary Convert to manat
// @Description Converts an amount of the given currency into manat using the rate for the given date.
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body models.ConversionRequest true "Conversion request"
// @Success 200 {object} models.ConversionResponse "Conversion result"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Currency not found"
// @Failure 502 {object} models.ErrorResponse "Upstream feed unavailable"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /conversions/to-manat [post]
func NewConvertToManatHandler(svc Converter) http.HandlerFunc {
	return newConversionHandler(svc.ToManat, func(req models.ConversionRequest, result decimal.Decimal) string {
		return fmt.Sprintf("%s %s = %s AZN", req.Amount, req.Currency, result)
	})
}

// NewConvertFromManatHandler returns an HTTP handler converting a manat
// amount into the given currency at the day's rate.
// @Summary Convert from manat
// @Description Converts a manat amount into the given currency using the rate for the given date.
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body models.ConversionRequest true "Conversion request"
// @Success 200 {object} models.ConversionResponse "Conversion result"
// @Failure 400 {object} models.ErrorResponse "Invalid request or zero rate"
// @Failure 404 {object} models.ErrorResponse "Currency not found"
// @Failure 502 {object} models.ErrorResponse "Upstream feed unavailable"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /conversions/from-manat [post]
func NewConvertFromManatHandler(svc Converter) http.HandlerFunc {
	return newConversionHandler(svc.FromManat, func(req models.ConversionRequest, result decimal.Decimal) string {
		return fmt.Sprintf("%s AZN = %s %s", req.Amount, result, req.Currency)
	})
}

type convertFunc func(ctx context.Context, date time.Time, code string, amount decimal.Decimal) (decimal.Decimal, error)

func newConversionHandler(convert convertFunc, describe func(models.ConversionRequest, decimal.Decimal) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ConversionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Currency == "" {
			writeError(w, http.StatusBadRequest, "Missing currency")
			return
		}
		if req.Amount.IsNegative() || req.Amount.IsZero() {
			writeError(w, http.StatusBadRequest, "Amount must be positive")
			return
		}

		date, err := parseDateParam(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}

		result, err := convert(r.Context(), date, req.Currency, req.Amount)
		if err != nil {
			if errors.Is(err, services.ErrZeroRate) {
				writeError(w, http.StatusBadRequest, "Exchange rate is zero, conversion impossible")
				return
			}
			writeServiceError(w, err)
			return
		}

		resp := models.ConversionResponse{
			Result:    result,
			Message:   describe(req, result),
			Timestamp: time.Now().UTC(),
			Status:    "SUCCESS",
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
