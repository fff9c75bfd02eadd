package middleware

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// responseTimeBufferSize bounds the ring of recent response durations.
const responseTimeBufferSize = 1000

// summaryLogInterval controls how often (in requests) a summary line is logged.
const summaryLogInterval = 100

// Snapshot is a read-consistent view of the aggregated request metrics.
type Snapshot struct {
	TotalRequests       int64            `json:"total_requests"`
	RequestsByStatus    map[int]int64    `json:"requests_by_status"`
	RequestsByEndpoint  map[string]int64 `json:"requests_by_endpoint"`
	RecentResponseTimes []float64        `json:"recent_response_times_ms"`
	AvgResponseTimeMS   float64          `json:"avg_response_time_ms"`
	MinResponseTimeMS   float64          `json:"min_response_time_ms"`
	MaxResponseTimeMS   float64          `json:"max_response_time_ms"`
}

// MetricsAggregator maintains rolling in-memory counters over the request
// stream and mirrors them into Prometheus collectors. Recording is best
// effort: it never propagates a failure into the request path it instruments.
type MetricsAggregator struct {
	mu            sync.Mutex
	logger        *zap.Logger
	registry      *prometheus.Registry
	totalRequests int64
	byStatus      map[int]int64
	byEndpoint    map[string]int64
	responseTimes []float64

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetricsAggregator creates an aggregator and registers its Prometheus
// collectors with reg. Each aggregator needs its own registry to avoid
// default-registry collisions.
func NewMetricsAggregator(logger *zap.Logger, reg *prometheus.Registry) *MetricsAggregator {
	m := &MetricsAggregator{
		logger:     logger,
		registry:   reg,
		byStatus:   make(map[int]int64),
		byEndpoint: make(map[string]int64),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookstore_http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Registry returns the Prometheus registry backing this aggregator, for
// mounting a scrape endpoint.
func (m *MetricsAggregator) Registry() *prometheus.Registry {
	return m.registry
}

// Record updates the counters for one finished request.
func (m *MetricsAggregator) Record(statusCode int, method, path string, durationMS float64) {
	defer func() {
		// Instrumentation must never abort the request it measures.
		if r := recover(); r != nil {
			m.logger.Error("metrics recording failed", zap.Any("panic", r))
		}
	}()

	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(durationMS / 1000)

	m.mu.Lock()

	m.totalRequests++
	m.byStatus[statusCode]++
	m.byEndpoint[method+" "+path]++

	m.responseTimes = append(m.responseTimes, durationMS)
	if len(m.responseTimes) > responseTimeBufferSize {
		// Drop oldest, keep the most recent 1000 in order.
		m.responseTimes = m.responseTimes[len(m.responseTimes)-responseTimeBufferSize:]
	}

	emitSummary := m.totalRequests%summaryLogInterval == 0
	var total int64
	var avg float64
	var histogram map[int]int64
	if emitSummary {
		total = m.totalRequests
		avg = mean(m.responseTimes)
		histogram = make(map[int]int64, len(m.byStatus))
		for code, count := range m.byStatus {
			histogram[code] = count
		}
	}

	m.mu.Unlock()

	if emitSummary {
		m.logger.Info("metrics summary",
			zap.Int64("total_requests", total),
			zap.Float64("avg_response_time_ms", avg),
			zap.Any("status_codes", statusHistogramFields(histogram)),
		)
	}
}

// Snapshot returns a copy of the current metrics including computed
// avg/min/max response times. With an empty buffer the computed values
// are zero.
func (m *MetricsAggregator) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       m.totalRequests,
		RequestsByStatus:    make(map[int]int64, len(m.byStatus)),
		RequestsByEndpoint:  make(map[string]int64, len(m.byEndpoint)),
		RecentResponseTimes: append([]float64(nil), m.responseTimes...),
	}
	for code, count := range m.byStatus {
		snap.RequestsByStatus[code] = count
	}
	for endpoint, count := range m.byEndpoint {
		snap.RequestsByEndpoint[endpoint] = count
	}

	if len(m.responseTimes) > 0 {
		snap.AvgResponseTimeMS = mean(m.responseTimes)
		snap.MinResponseTimeMS = m.responseTimes[0]
		snap.MaxResponseTimeMS = m.responseTimes[0]
		for _, d := range m.responseTimes[1:] {
			if d < snap.MinResponseTimeMS {
				snap.MinResponseTimeMS = d
			}
			if d > snap.MaxResponseTimeMS {
				snap.MaxResponseTimeMS = d
			}
		}
	}

	return snap
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// statusHistogramFields keys the histogram by the status code string so the
// JSON log output is stable.
func statusHistogramFields(histogram map[int]int64) map[string]int64 {
	out := make(map[string]int64, len(histogram))
	for code, count := range histogram {
		out[fmt.Sprintf("%d", code)] = count
	}
	return out
}
