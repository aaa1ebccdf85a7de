package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

var (
	// ErrFutureDate is returned before any I/O when a requested date lies
	// after the current date.
	ErrFutureDate = errors.New("date must not be in the future")

	// ErrCurrencyNotFound is returned when a code is absent from a date's
	// successfully fetched record set.
	ErrCurrencyNotFound = errors.New("currency not found")
)

// SnapshotReader answers queries against the durable per-day snapshots.
type SnapshotReader interface {
	Exists(ctx context.Context, date time.Time) (bool, error)                                      // Reports whether a snapshot exists for a date
	GetByDate(ctx context.Context, date time.Time) ([]models.Currency, error)                      // Returns a date's full record set
	GetByDateAndCode(ctx context.Context, date time.Time, code string) (*models.Currency, error)   // Returns one record, nil when absent
}

// SnapshotWriter owns durable snapshot mutations.
type SnapshotWriter interface {
	Save(ctx context.Context, date time.Time, records []models.Currency) error // Upserts a date's full record set
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)      // Evicts snapshots dated before cutoff
}

// FeedReader fetches raw entries from the upstream bank feed.
type FeedReader interface {
	GetCurrencies(ctx context.Context, date time.Time) ([]models.RawFeedEntry, error)
}

// SnapshotHotCache is the optional fast lookup layer in front of the durable
// store. Its failures are absorbed, never surfaced.
type SnapshotHotCache interface {
	GetByDate(ctx context.Context, date time.Time) ([]models.Currency, error)
	SetByDate(ctx context.Context, date time.Time, records []models.Currency) error
}

// RatesService is the cache-first entry point for rate lookups: cached
// snapshots are served as-is, a miss triggers one coalesced
// fetch-normalize-persist per date.
type RatesService struct {
	reader SnapshotReader
	writer SnapshotWriter
	feed   FeedReader
	hot    SnapshotHotCache
	flight *singleflight.Group
}

// NewRatesService creates the service. The singleflight group is injected so
// every handler sharing the service also shares the per-date coalescing. A
// nil hot cache disables the fast path.
func NewRatesService(
	reader SnapshotReader,
	writer SnapshotWriter,
	feed FeedReader,
	hot SnapshotHotCache,
	flight *singleflight.Group,
) *RatesService {
	return &RatesService{
		reader: reader,
		writer: writer,
		feed:   feed,
		hot:    hot,
		flight: flight,
	}
}

// GetRates returns the full record set for a date, fetching and persisting it
// on a cache miss. Nothing is persisted when the upstream fetch fails.
func (s *RatesService) GetRates(ctx context.Context, date time.Time) ([]models.Currency, error) {
	if isFuture(date) {
		return nil, ErrFutureDate
	}

	if records, ok := s.fromHotCache(ctx, date); ok {
		return records, nil
	}

	exists, err := s.reader.Exists(ctx, date)
	if err != nil {
		return nil, err
	}
	if exists {
		records, err := s.reader.GetByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		s.toHotCache(ctx, date, records)
		return records, nil
	}

	return s.fetchAndStore(ctx, date)
}

// GetRate returns a single currency record for a date. When the snapshot
// already exists the record is looked up directly instead of materializing
// the whole set; a miss on the date runs the full fetch flow first.
func (s *RatesService) GetRate(ctx context.Context, date time.Time, code string) (*models.Currency, error) {
	if isFuture(date) {
		return nil, ErrFutureDate
	}

	if records, ok := s.fromHotCache(ctx, date); ok {
		return pickCurrency(records, code)
	}

	exists, err := s.reader.Exists(ctx, date)
	if err != nil {
		return nil, err
	}
	if exists {
		record, err := s.reader.GetByDateAndCode(ctx, date, code)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, ErrCurrencyNotFound
		}
		return record, nil
	}

	records, err := s.fetchAndStore(ctx, date)
	if err != nil {
		return nil, err
	}
	return pickCurrency(records, code)
}

// fetchAndStore coalesces concurrent misses for the same date onto a single
// upstream fetch; every caller receives the resulting set or the same error.
func (s *RatesService) fetchAndStore(ctx context.Context, date time.Time) ([]models.Currency, error) {
	key := date.Format(models.DateLayout)

	v, err, shared := s.flight.Do(key, func() (any, error) {
		// a previous flight may have persisted the date while we queued
		exists, err := s.reader.Exists(ctx, date)
		if err == nil && exists {
			return s.reader.GetByDate(ctx, date)
		}

		entries, err := s.feed.GetCurrencies(ctx, date)
		if err != nil {
			return nil, err
		}

		records := make([]models.Currency, 0, len(entries))
		for _, entry := range entries {
			records = append(records, Normalize(entry))
		}

		if err := s.writer.Save(ctx, date, records); err != nil {
			return nil, err
		}
		s.toHotCache(ctx, date, records)

		logger.Log.Infow("snapshot fetched and stored", "date", key, "records", len(records))
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Log.Debugw("coalesced concurrent fetch", "date", key)
	}

	return v.([]models.Currency), nil
}

func (s *RatesService) fromHotCache(ctx context.Context, date time.Time) ([]models.Currency, bool) {
	if s.hot == nil {
		return nil, false
	}
	records, err := s.hot.GetByDate(ctx, date)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return records, true
}

func (s *RatesService) toHotCache(ctx context.Context, date time.Time, records []models.Currency) {
	if s.hot == nil || len(records) == 0 {
		return
	}
	if err := s.hot.SetByDate(ctx, date, records); err != nil {
		logger.Log.Errorw("hot cache populate failed", "date", date.Format(models.DateLayout), "error", err)
	}
}

func pickCurrency(records []models.Currency, code string) (*models.Currency, error) {
	for i := range records {
		if strings.EqualFold(records[i].Code, code) {
			return &records[i], nil
		}
	}
	return nil, ErrCurrencyNotFound
}

// isFuture compares calendar dates, not instants: any time on today's date is
// not in the future.
func isFuture(date time.Time) bool {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return d.After(today)
}
