package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// SnapshotReadRepository answers freshness and lookup queries against the
// durable per-day rate snapshots.
type SnapshotReadRepository struct {
	db *sqlx.DB
}

func NewSnapshotReadRepository(db *sqlx.DB) *SnapshotReadRepository {
	return &SnapshotReadRepository{db: db}
}

// Exists reports whether a snapshot is stored for the date.
func (r *SnapshotReadRepository) Exists(ctx context.Context, date time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM cached_currencies WHERE currency_date = $1
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, date)

	logger.Log.Infow("snapshot exists",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{date},
		"result", exists,
		"error", err,
	)

	return exists, err
}

// GetByDate returns the full record set stored for the date, ordered by code
// so repeated reads observe identical sets. An absent date yields an empty
// slice, not an error.
func (r *SnapshotReadRepository) GetByDate(ctx context.Context, date time.Time) ([]models.Currency, error) {
	const query = `
		SELECT currency_code, currency_name, exchange_rate
		FROM cached_currencies
		WHERE currency_date = $1
		ORDER BY currency_code
	`

	var records []models.Currency
	err := r.db.SelectContext(ctx, &records, query, date)

	logger.Log.Infow("snapshot get",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{date},
		"result", len(records),
		"error", err,
	)

	return records, err
}

// GetByDateAndCode looks up a single record by case-insensitive code.
// Returns (nil, nil) when the code is not part of the date's snapshot.
func (r *SnapshotReadRepository) GetByDateAndCode(ctx context.Context, date time.Time, code string) (*models.Currency, error) {
	const query = `
		SELECT currency_code, currency_name, exchange_rate
		FROM cached_currencies
		WHERE currency_date = $1 AND UPPER(currency_code) = UPPER($2)
		LIMIT 1
	`

	var record models.Currency
	err := r.db.GetContext(ctx, &record, query, date, code)

	logger.Log.Infow("snapshot get one",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{date, code},
		"result", record,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// SnapshotWriteRepository owns all durable snapshot mutations.
type SnapshotWriteRepository struct {
	db *sqlx.DB
}

func NewSnapshotWriteRepository(db *sqlx.DB) *SnapshotWriteRepository {
	return &SnapshotWriteRepository{db: db}
}

// Save upserts the full record set for a date inside one transaction, so a
// concurrent reader observes either no records for the date or all of them.
// Re-saving an existing date succeeds and keeps (date, code) unique.
func (r *SnapshotWriteRepository) Save(ctx context.Context, date time.Time, records []models.Currency) error {
	const query = `
		INSERT INTO cached_currencies (currency_date, currency_code, currency_name, exchange_rate, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (currency_date, currency_code) DO UPDATE
		SET currency_name = EXCLUDED.currency_name,
		    exchange_rate = EXCLUDED.exchange_rate
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		logger.Log.Errorw("snapshot save begin failed", "date", date, "error", err)
		return err
	}

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query, date, rec.Code, rec.Name, rec.Rate); err != nil {
			_ = tx.Rollback()
			logger.Log.Errorw("snapshot save failed",
				"query", strings.Join(strings.Fields(query), " "),
				"args", []any{date, rec.Code, rec.Name, rec.Rate},
				"error", err,
			)
			return err
		}
	}

	err = tx.Commit()

	logger.Log.Infow("snapshot save",
		"date", date,
		"records", len(records),
		"error", err,
	)

	return err
}

// DeleteOlderThan removes every snapshot dated strictly before the cutoff and
// reports how many rows went away.
func (r *SnapshotWriteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM cached_currencies
		WHERE currency_date < $1
	`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	var deleted int64
	if res != nil {
		deleted, _ = res.RowsAffected()
	}

	logger.Log.Infow("snapshot delete older than",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{cutoff},
		"result", deleted,
		"error", err,
	)

	return deleted, err
}
