package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// BookStatsRefresher recomputes denormalized review aggregates.
type BookStatsRefresher interface {
	RefreshStats(bookID uint) error
	RefreshAllStats() error
}

// RefreshBookStatsTask recomputes a book's average rating and review count.
// A zero BookID refreshes every book that has reviews.
type RefreshBookStatsTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for stats refresh tasks.
func (t RefreshBookStatsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_book_stats",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshBookStatsProcessor creates a processor function for
// RefreshBookStatsTask.
func RefreshBookStatsProcessor(refresher BookStatsRefresher, logger *zap.Logger) backlite.QueueProcessor[RefreshBookStatsTask] {
	return func(ctx context.Context, task RefreshBookStatsTask) error {
		if refresher == nil {
			return fmt.Errorf("book stats refresher not configured")
		}

		if task.BookID == 0 {
			if err := refresher.RefreshAllStats(); err != nil {
				return fmt.Errorf("refresh all book stats: %w", err)
			}
			logger.Info("refreshed review stats for all books")
			return nil
		}

		if err := refresher.RefreshStats(task.BookID); err != nil {
			return fmt.Errorf("refresh stats for book %d: %w", task.BookID, err)
		}
		logger.Info("refreshed book review stats", zap.Uint("book_id", task.BookID))
		return nil
	}
}

// NewRefreshBookStatsQueue creates a backlite queue for stats refresh tasks.
func NewRefreshBookStatsQueue(refresher BookStatsRefresher, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(RefreshBookStatsProcessor(refresher, logger))
}
