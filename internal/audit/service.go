// Package audit records who did what to the catalog and when.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *zap.Logger
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records an audit event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
// The request id is taken from ctx so events can be correlated with
// access logs.
func (s *Service) LogAsync(ctx context.Context, event *entities.AuditEvent) {
	if event.RequestID == "" {
		event.RequestID = requestctx.RequestID(ctx)
	}
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			s.logger.Error("failed to log audit event",
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}()
}

// LogCatalogChange records a create, update or delete of a catalog entity.
func (s *Service) LogCatalogChange(ctx context.Context, userID uint, action, entityType string, entityID uint, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(ctx, event)
}

// LogReview records a review creation or update.
func (s *Service) LogReview(ctx context.Context, userID uint, action string, bookID uint, metadata map[string]any) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventReview,
		Action:     action,
		EntityType: "book",
		EntityID:   &bookID,
		Status:     entities.AuditStatusSuccess,
	}

	if len(metadata) > 0 {
		if mdBytes, err := json.Marshal(metadata); err == nil {
			event.Metadata = string(mdBytes)
		}
	}

	s.LogAsync(ctx, event)
}

// LogAuth records an authentication event. The description field carries
// the attempted username for failed logins.
func (s *Service) LogAuth(ctx context.Context, userID uint, action string, status entities.AuditStatus, ipAddr, description string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(description, 500),
		IPAddress:   ipAddr,
		Status:      status,
	}

	s.LogAsync(ctx, event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
