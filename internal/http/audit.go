package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/entities"
)

// AuditController exposes the audit trail to administrators.
type AuditController struct {
	auditor *audit.Service
	logger  *zap.Logger
}

func NewAuditController(auditor *audit.Service, logger *zap.Logger) *AuditController {
	return &AuditController{auditor: auditor, logger: logger}
}

// ListEvents returns paginated audit events, optionally filtered by
// event type or user id.
func (controller *AuditController) ListEvents(c *gin.Context) {
	limit, offset := parsePagination(c)

	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		userID = uint(parsed)
	}

	var (
		events []entities.AuditEvent
		total  int64
		err    error
	)
	if eventType := c.Query("type"); eventType != "" {
		events, total, err = controller.auditor.GetEventsByType(entities.AuditEventType(eventType), userID, limit, offset)
	} else {
		events, total, err = controller.auditor.GetEvents(userID, limit, offset)
	}
	if err != nil {
		respondInternalError(c, controller.logger, err, "audit events")
		return
	}

	c.JSON(http.StatusOK, paginated(events, total, limit, offset))
}
