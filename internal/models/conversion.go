package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conversion direction stored with each history row.
const (
	ConversionToManat   = "toManat"
	ConversionFromManat = "fromManat"
)

// ConversionRequest is the JSON body for both conversion endpoints.
// swagger:model ConversionRequest
type ConversionRequest struct {
	// Rate date
	// example: 2025-08-29
	Date string `json:"date"`

	// Currency code
	// example: EUR
	Currency string `json:"currency"`

	// Amount to convert
	// example: 100.0
	Amount decimal.Decimal `json:"amount"`
}

// ConversionResponse is returned after a successful conversion.
// swagger:model ConversionResponse
type ConversionResponse struct {
	// Converted amount, 4 decimal places
	// example: 198.29
	Result decimal.Decimal `json:"result"`

	// Human-readable summary
	Message string `json:"message"`

	// Server time of the conversion
	Timestamp time.Time `json:"timestamp"`

	// SUCCESS or ERROR
	Status string `json:"status"`
}

// ConversionHistory is one recorded conversion.
type ConversionHistory struct {
	ID        uuid.UUID       `db:"conversion_id"`
	Type      string          `db:"type"`
	Date      time.Time       `db:"conversion_date"`
	Currency  string          `db:"currency"`
	Amount    decimal.Decimal `db:"amount"`
	Rate      decimal.Decimal `db:"rate"`
	Result    decimal.Decimal `db:"result"`
	CreatedAt time.Time       `db:"created_at"`
}
