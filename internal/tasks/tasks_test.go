package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/config"
)

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, f.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 12}
	processor := CleanupAuditEventsProcessor(cleaner, zap.NewNop())

	err := processor(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)
}

func TestCleanupAuditEventsProcessor_DefaultRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	processor := CleanupAuditEventsProcessor(cleaner, zap.NewNop())

	err := processor(context.Background(), CleanupAuditEventsTask{})
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
}

func TestCleanupAuditEventsProcessor_Errors(t *testing.T) {
	processor := CleanupAuditEventsProcessor(nil, zap.NewNop())
	assert.Error(t, processor(context.Background(), CleanupAuditEventsTask{}))

	failing := &fakeCleaner{err: errors.New("disk full")}
	processor = CleanupAuditEventsProcessor(failing, zap.NewNop())
	assert.Error(t, processor(context.Background(), CleanupAuditEventsTask{}))
}

type fakeRefresher struct {
	refreshed  []uint
	refreshAll bool
	err        error
}

func (f *fakeRefresher) RefreshStats(bookID uint) error {
	f.refreshed = append(f.refreshed, bookID)
	return f.err
}

func (f *fakeRefresher) RefreshAllStats() error {
	f.refreshAll = true
	return f.err
}

func TestRefreshBookStatsProcessor(t *testing.T) {
	refresher := &fakeRefresher{}
	processor := RefreshBookStatsProcessor(refresher, zap.NewNop())

	require.NoError(t, processor(context.Background(), RefreshBookStatsTask{BookID: 5}))
	assert.Equal(t, []uint{5}, refresher.refreshed)
	assert.False(t, refresher.refreshAll)
}

func TestRefreshBookStatsProcessor_AllBooks(t *testing.T) {
	refresher := &fakeRefresher{}
	processor := RefreshBookStatsProcessor(refresher, zap.NewNop())

	require.NoError(t, processor(context.Background(), RefreshBookStatsTask{}))
	assert.True(t, refresher.refreshAll)
	assert.Empty(t, refresher.refreshed)
}

func TestFromAppConfig_Defaults(t *testing.T) {
	cfg := FromAppConfig(config.Tasks{})
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = FromAppConfig(config.Tasks{Workers: 8, RetryDelay: 5 * time.Second})
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, DefaultConfig().TaskTimeout, cfg.TaskTimeout)
}
