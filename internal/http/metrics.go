package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/bookstore/internal/middleware"
)

// MetricsController exposes request metrics in two forms: a JSON snapshot
// for dashboards and the Prometheus text format for scrapers.
type MetricsController struct {
	aggregator *middleware.MetricsAggregator
}

func NewMetricsController(aggregator *middleware.MetricsAggregator) *MetricsController {
	return &MetricsController{aggregator: aggregator}
}

func (mc *MetricsController) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(mc.aggregator.Registry(), promhttp.HandlerOpts{})))
	router.GET("/metrics/summary", mc.Summary)
}

// Summary returns the in-process metrics snapshot.
func (mc *MetricsController) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, mc.aggregator.Snapshot())
}
