package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nurlanv/cbar-rates/internal/models"
)

func setupSnapshotPostgresContainer(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := tc.GenericContainer(context.Background(), tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	assert.NoError(t, err)

	host, _ := container.Host(context.Background())
	port, _ := container.MappedPort(context.Background(), "5432")

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	assert.NoError(t, err)

	schema := `
	CREATE TABLE IF NOT EXISTS cached_currencies (
		id BIGSERIAL PRIMARY KEY,
		currency_date DATE NOT NULL,
		currency_code VARCHAR(10) NOT NULL,
		currency_name VARCHAR(255) NOT NULL,
		exchange_rate NUMERIC(19,6) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (currency_date, currency_code)
	);
	`
	_, err = db.Exec(schema)
	assert.NoError(t, err)

	teardown := func() {
		db.Close()
		container.Terminate(context.Background())
	}

	return db, teardown
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSnapshotRepositories(t *testing.T) {
	db, teardown := setupSnapshotPostgresContainer(t)
	defer teardown()

	ctx := context.Background()
	reader := NewSnapshotReadRepository(db)
	writer := NewSnapshotWriteRepository(db)

	d1 := day(2025, 8, 27)
	d2 := day(2025, 8, 28)

	records := []models.Currency{
		{Code: "EUR", Name: "1 Avro", Rate: decimal.RequireFromString("1.9829")},
		{Code: "USD", Name: "1 ABŞ dolları", Rate: decimal.RequireFromString("1.7")},
	}

	t.Run("exists_false_and_empty_get_before_save", func(t *testing.T) {
		exists, err := reader.Exists(ctx, d1)
		assert.NoError(t, err)
		assert.False(t, exists)

		got, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("save_and_read_back", func(t *testing.T) {
		assert.NoError(t, writer.Save(ctx, d1, records))

		exists, err := reader.Exists(ctx, d1)
		assert.NoError(t, err)
		assert.True(t, exists)

		got, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "EUR", got[0].Code)
		assert.True(t, records[0].Rate.Equal(got[0].Rate))
	})

	t.Run("repeated_read_is_identical", func(t *testing.T) {
		first, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		second, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("save_is_idempotent_upsert", func(t *testing.T) {
		updated := []models.Currency{
			{Code: "EUR", Name: "1 Avro", Rate: decimal.RequireFromString("1.9900")},
			{Code: "USD", Name: "1 ABŞ dolları", Rate: decimal.RequireFromString("1.7")},
		}
		assert.NoError(t, writer.Save(ctx, d1, updated))

		got, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		assert.Len(t, got, 2, "no duplicate (date, code) rows after re-save")
		assert.True(t, decimal.RequireFromString("1.9900").Equal(got[0].Rate))
	})

	t.Run("dates_are_isolated", func(t *testing.T) {
		assert.NoError(t, writer.Save(ctx, d2, records[:1]))

		got, err := reader.GetByDate(ctx, d1)
		assert.NoError(t, err)
		assert.Len(t, got, 2, "writing d2 must not affect d1")
	})

	t.Run("get_by_date_and_code_case_insensitive", func(t *testing.T) {
		rec, err := reader.GetByDateAndCode(ctx, d1, "eur")
		assert.NoError(t, err)
		if assert.NotNil(t, rec) {
			assert.Equal(t, "EUR", rec.Code)
		}

		missing, err := reader.GetByDateAndCode(ctx, d1, "XXX")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("delete_older_than_cutoff_only", func(t *testing.T) {
		old := day(2025, 7, 1)
		assert.NoError(t, writer.Save(ctx, old, records[:1]))

		deleted, err := writer.DeleteOlderThan(ctx, d1)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		exists, err := reader.Exists(ctx, old)
		assert.NoError(t, err)
		assert.False(t, exists)

		// the cutoff date itself and newer dates stay
		exists, err = reader.Exists(ctx, d1)
		assert.NoError(t, err)
		assert.True(t, exists)
		exists, err = reader.Exists(ctx, d2)
		assert.NoError(t, err)
		assert.True(t, exists)
	})
}
