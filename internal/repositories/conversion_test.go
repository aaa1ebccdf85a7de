package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nurlanv/cbar-rates/internal/models"
)

func newConversionHistory() models.ConversionHistory {
	return models.ConversionHistory{
		ID:       uuid.New(),
		Type:     models.ConversionToManat,
		Date:     time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
		Currency: "EUR",
		Amount:   decimal.RequireFromString("100"),
		Rate:     decimal.RequireFromString("1.9829"),
		Result:   decimal.RequireFromString("198.29"),
	}
}

func TestConversionWriteRepository_Save(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "pgx")
	repo := NewConversionWriteRepository(db, nil)

	h := newConversionHistory()

	mock.ExpectExec("INSERT INTO conversion_history").
		WithArgs(h.ID, h.Type, h.Date, h.Currency, h.Amount, h.Rate, h.Result).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), h)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionWriteRepository_SaveError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "pgx")
	repo := NewConversionWriteRepository(db, nil)

	h := newConversionHistory()

	mock.ExpectExec("INSERT INTO conversion_history").
		WillReturnError(errors.New("insert failed"))

	err = repo.Save(context.Background(), h)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionWriteRepository_SaveUsesTxFromContext(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "pgx")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conversion_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	assert.NoError(t, err)

	repo := NewConversionWriteRepository(db, func(ctx context.Context) *sqlx.Tx { return tx })

	err = repo.Save(context.Background(), newConversionHistory())
	assert.NoError(t, err)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
