package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// SnapshotHotCacheRepository keeps a whole day's record set in Redis so the
// common lookup path skips PostgreSQL. It is strictly best-effort: the
// durable store remains the source of truth and every failure here is
// absorbed by the caller.
type SnapshotHotCacheRepository struct {
	client *redis.Client
	exp    time.Duration
}

// NewSnapshotHotCacheRepository creates a repository with the given TTL.
func NewSnapshotHotCacheRepository(client *redis.Client, expiration time.Duration) *SnapshotHotCacheRepository {
	return &SnapshotHotCacheRepository{client: client, exp: expiration}
}

func snapshotKey(date time.Time) string {
	return fmt.Sprintf("snapshot:%s", date.Format(models.DateLayout))
}

// GetByDate fetches the cached record set for a date.
func (r *SnapshotHotCacheRepository) GetByDate(ctx context.Context, date time.Time) ([]models.Currency, error) {
	key := snapshotKey(date)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("snapshot not in hot cache for %s", date.Format(models.DateLayout))
		}
		logger.Log.Errorw("hot cache get failed", "key", key, "error", err)
		return nil, err
	}

	var records []models.Currency
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		logger.Log.Errorw("hot cache payload unmarshal failed", "key", key, "error", err)
		return nil, err
	}

	logger.Log.Infow("hot cache hit", "key", key, "records", len(records))
	return records, nil
}

// SetByDate stores the record set for a date with the configured expiration.
func (r *SnapshotHotCacheRepository) SetByDate(ctx context.Context, date time.Time, records []models.Currency) error {
	key := snapshotKey(date)

	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, payload, r.exp).Err()

	logger.Log.Infow("hot cache set",
		"key", key,
		"records", len(records),
		"error", err,
	)

	return err
}
