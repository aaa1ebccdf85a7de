package services

import (
	"context"
	"time"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// DefaultRetentionDays is how long snapshots are kept when no override is
// given.
const DefaultRetentionDays = 30

// CleanupService evicts snapshots older than the retention window. It is
// maintenance, not a correctness path: storage errors are logged and
// absorbed, never raised to the caller.
type CleanupService struct {
	writer        SnapshotWriter
	retentionDays int
	interval      time.Duration
}

// NewCleanupService creates a sweeper with the given default retention.
// A non-positive retention falls back to DefaultRetentionDays.
func NewCleanupService(writer SnapshotWriter, retentionDays int, interval time.Duration) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupService{
		writer:        writer,
		retentionDays: retentionDays,
		interval:      interval,
	}
}

// Cleanup deletes snapshots dated strictly before today minus daysToKeep.
// A non-positive override falls back to the configured default.
func (s *CleanupService) Cleanup(ctx context.Context, daysToKeep int) {
	if daysToKeep <= 0 {
		daysToKeep = s.retentionDays
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -daysToKeep)

	deleted, err := s.writer.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Log.Errorw("cache cleanup failed",
			"cutoff", cutoff.Format(models.DateLayout),
			"days_to_keep", daysToKeep,
			"error", err,
		)
		return
	}

	logger.Log.Infow("cache cleanup completed",
		"cutoff", cutoff.Format(models.DateLayout),
		"days_to_keep", daysToKeep,
		"deleted", deleted,
	)
}

// Run sweeps once per interval with the configured retention until the
// context is cancelled.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Log.Infow("cache cleanup scheduler started",
		"interval", s.interval,
		"retention_days", s.retentionDays,
	)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("cache cleanup scheduler stopped")
			return
		case <-ticker.C:
			s.Cleanup(ctx, s.retentionDays)
		}
	}
}
