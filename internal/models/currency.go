package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates in requests and responses.
const DateLayout = "2006-01-02"

// Currency is a normalized exchange-rate record for one currency on one date.
// Rate is the price of one unit of Code in manat, rounded to 6 decimal places.
// A zero Rate marks a degraded record: the feed entry could not be fully
// parsed, but the record is still served so a day's set stays complete.
// swagger:model Currency
type Currency struct {
	// ISO-4217-like currency code
	// example: EUR
	Code string `json:"code" db:"currency_code"`

	// Currency name in Azerbaijani script
	// example: 1 Avro
	Name string `json:"name" db:"currency_name"`

	// Rate of one unit in AZN, 6 decimal places
	// example: 1.9829
	Rate decimal.Decimal `json:"rate" db:"exchange_rate"`

	// Degraded is set when rate or code could not be determined from the feed.
	Degraded bool `json:"-" db:"-"`
}

// RawFeedEntry is one <Valute> element as it appears in the CBAR document,
// before any normalization. It lives only for the duration of one parse.
type RawFeedEntry struct {
	Code    string // may be empty, code is then inferred from the name
	Name    string // may carry mojibake from the upstream encoding
	Nominal string // e.g. "1", "100", "1 t.u."
	Value   string // decimal with comma or dot separator
}

// CachedCurrencyDB is the durable row shape for one (date, code) pair.
type CachedCurrencyDB struct {
	CurrencyDate time.Time       `db:"currency_date"`
	CurrencyCode string          `db:"currency_code"`
	CurrencyName string          `db:"currency_name"`
	ExchangeRate decimal.Decimal `db:"exchange_rate"`
	CreatedAt    time.Time       `db:"created_at"`
}
