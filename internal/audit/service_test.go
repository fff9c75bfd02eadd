package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditdb "github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

func setupService(t *testing.T) (*Service, func()) {
	dbPath := "./test_audit_svc_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	svc := NewService(auditdb.NewRepository(db), zap.NewNop())

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return svc, cleanup
}

func waitForEvents(t *testing.T, svc *Service, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, total, err := svc.GetEvents(0, 10, 0)
		require.NoError(t, err)
		if total >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d audit events, got fewer before deadline", want)
}

func TestService_LogCatalogChange(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()

	ctx := requestctx.WithRequestID(context.Background(), "req-42")
	svc.LogCatalogChange(ctx, 1, "book_create", "book", 7, "Created book: Test", nil)

	waitForEvents(t, svc, 1)

	events, _, err := svc.GetEvents(1, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "book_create", events[0].Action)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)
	require.NotNil(t, events[0].EntityID)
	assert.EqualValues(t, 7, *events[0].EntityID)
}

func TestService_LogAuth_Failure(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()

	svc.LogAuth(context.Background(), 0, "login_failed", entities.AuditStatusFailed, "10.0.0.1", "ghost")

	waitForEvents(t, svc, 1)

	events, _, err := svc.GetEventsByType(entities.AuditEventAuth, 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)
	assert.Equal(t, "ghost", events[0].Description)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()

	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-72 * time.Hour)}))
	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "recent"}))

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
