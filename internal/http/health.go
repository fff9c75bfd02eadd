package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	UptimeS int64             `json:"uptime_seconds"`
	Catalog *CatalogSummary   `json:"catalog,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type CatalogSummary struct {
	Books int64 `json:"books"`
	Users int64 `json:"users"`
}

type HealthController struct {
	db        *database.Database
	version   string
	startedAt time.Time
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:        db,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	var catalog *CatalogSummary
	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.ping(); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "ok"
		catalog = h.countCatalog()
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		UptimeS: int64(time.Since(h.startedAt).Seconds()),
		Catalog: catalog,
		Checks:  checks,
	})
}

func (h *HealthController) ping() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (h *HealthController) countCatalog() *CatalogSummary {
	var summary CatalogSummary
	if err := h.db.DB.Model(&entities.Book{}).Count(&summary.Books).Error; err != nil {
		return nil
	}
	if err := h.db.DB.Model(&entities.User{}).Count(&summary.Users).Error; err != nil {
		return nil
	}
	return &summary
}
