package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// ConversionWriteRepository records performed conversions. When the request
// ran through the transaction middleware the write joins that transaction via
// txGetter, otherwise it goes straight to the pool.
type ConversionWriteRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewConversionWriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *ConversionWriteRepository {
	return &ConversionWriteRepository{db: db, txGetter: txGetter}
}

// Save appends one conversion to the history.
func (r *ConversionWriteRepository) Save(ctx context.Context, h models.ConversionHistory) error {
	const query = `
		INSERT INTO conversion_history (conversion_id, type, conversion_date, currency, amount, rate, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	var executor sqlx.ExtContext = r.db
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			executor = tx
		}
	}

	args := []any{h.ID, h.Type, h.Date, h.Currency, h.Amount, h.Rate, h.Result}
	_, err := executor.ExecContext(ctx, query, args...)

	logger.Log.Infow("conversion history save",
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"error", err,
	)

	return err
}
