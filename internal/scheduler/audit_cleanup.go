// Package scheduler triggers recurring maintenance work on cron schedules.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// MaintenanceScheduler enqueues periodic maintenance tasks: audit event
// retention cleanup and review stats refresh.
type MaintenanceScheduler struct {
	taskClient *tasks.Client
	cfg        config.Audit
	logger     *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewMaintenanceScheduler creates a new scheduler instance.
func NewMaintenanceScheduler(taskClient *tasks.Client, cfg config.Audit, logger *zap.Logger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		taskClient: taskClient,
		cfg:        cfg,
		logger:     logger,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the cron entries and begins scheduling.
func (s *MaintenanceScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.CleanupCron, func() {
		s.enqueueAuditCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	// Stats drift only when reviews change outside the API, so a nightly
	// sweep is enough.
	_, err = s.cron.AddFunc("30 3 * * *", func() {
		s.enqueueStatsRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("maintenance scheduler started",
		zap.String("audit_cleanup_cron", s.cfg.CleanupCron))
	return nil
}

// Stop halts the scheduler. Jobs already enqueued keep running on the
// task queue.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cron.Stop()
	s.isRunning = false
	s.logger.Info("maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) enqueueAuditCleanup() {
	_, err := s.taskClient.Add(tasks.CleanupAuditEventsTask{
		RetentionDays: s.cfg.RetentionDays,
	}).Save()
	if err != nil {
		s.logger.Error("failed to enqueue audit cleanup task", zap.Error(err))
	}
}

func (s *MaintenanceScheduler) enqueueStatsRefresh() {
	_, err := s.taskClient.Add(tasks.RefreshBookStatsTask{}).Save()
	if err != nil {
		s.logger.Error("failed to enqueue stats refresh task", zap.Error(err))
	}
}
