package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/logging"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

func newPipelineRouter(t *testing.T, cfg PipelineConfig, register func(*gin.Engine)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	router := gin.New()
	router.Use(RequestPipeline(cfg))
	register(router)
	return router
}

func TestRequestPipeline_AttachesHeaders(t *testing.T) {
	router := newPipelineRouter(t, PipelineConfig{}, func(r *gin.Engine) {
		r.GET("/api/v1/books", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"books": []string{}})
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.True(t, strings.HasSuffix(w.Header().Get("X-Response-Time"), "ms"))
}

func TestRequestPipeline_FreshIDPerRequest(t *testing.T) {
	router := newPipelineRouter(t, PipelineConfig{}, func(r *gin.Engine) {
		r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)

		id := w.Header().Get("X-Request-ID")
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "correlation id %s reused", id)
		seen[id] = true
	}
}

func TestRequestPipeline_ContextCarriesRequestID(t *testing.T) {
	var observed string
	router := newPipelineRouter(t, PipelineConfig{}, func(r *gin.Engine) {
		r.GET("/ctx", func(c *gin.Context) {
			observed = requestctx.RequestID(c.Request.Context())
			c.Status(http.StatusNoContent)
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ctx", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, w.Header().Get("X-Request-ID"), observed)
	assert.NotEmpty(t, observed)
}

func TestRequestPipeline_ContextIsolation(t *testing.T) {
	router := newPipelineRouter(t, PipelineConfig{}, func(r *gin.Engine) {
		r.GET("/slow", func(c *gin.Context) {
			id := requestctx.RequestID(c.Request.Context())
			time.Sleep(5 * time.Millisecond)
			// The id observed after the suspension point must still belong
			// to this request.
			if requestctx.RequestID(c.Request.Context()) != id {
				c.Status(http.StatusInternalServerError)
				return
			}
			c.String(http.StatusOK, id)
		})
	})

	var wg sync.WaitGroup
	ids := make(chan string, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/slow", nil)
			router.ServeHTTP(w, req)
			if w.Code == http.StatusOK && w.Body.String() == w.Header().Get("X-Request-ID") {
				ids <- w.Body.String()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	count := 0
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
		count++
	}
	assert.Equal(t, 30, count)
}

func TestRequestPipeline_RateLimitRejection(t *testing.T) {
	limiter := newTestLimiter(60, 10)
	defer limiter.Stop()

	metrics := newTestAggregator()
	router := newPipelineRouter(t, PipelineConfig{
		Limiter:    limiter,
		Metrics:    metrics,
		Production: true,
	}, func(r *gin.Engine) {
		r.GET("/api/v1/books/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"books": []string{}})
		})
	})

	// 61 requests inside one window: 1-60 pass, 61 is rejected.
	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		last = httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/books/", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		router.ServeHTTP(last, req)
		if i < 60 {
			require.Equal(t, http.StatusOK, last.Code, "request %d", i+1)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.NotEmpty(t, last.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, last.Header().Get("X-Response-Time"))

	var body RateLimitedResponse
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "Too Many Requests", body.Error)
	assert.Equal(t, 60, body.RetryAfter)
	assert.Contains(t, body.Message, "Maximum 60 requests per minute")

	// The rejection itself is still counted by the aggregator.
	snap := metrics.Snapshot()
	assert.Equal(t, int64(61), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.RequestsByStatus[http.StatusTooManyRequests])
}

func TestRequestPipeline_RateLimitBypassedOutsideProduction(t *testing.T) {
	limiter := newTestLimiter(1, 1)
	defer limiter.Stop()

	router := newPipelineRouter(t, PipelineConfig{
		Limiter:    limiter,
		Production: false,
	}, func(r *gin.Engine) {
		r.GET("/api/v1/books", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/books", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestPipeline_HandlerPanicBecomesGeneric500(t *testing.T) {
	metrics := newTestAggregator()
	router := newPipelineRouter(t, PipelineConfig{Metrics: metrics}, func(r *gin.Engine) {
		r.GET("/boom", func(c *gin.Context) {
			panic("secret database password leaked")
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body InternalErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "An unexpected error occurred", body.Message)
	assert.Equal(t, w.Header().Get("X-Request-ID"), body.RequestID)

	// Internal detail never reaches the client.
	assert.NotContains(t, w.Body.String(), "secret database password")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.RequestsByStatus[http.StatusInternalServerError])

	// A subsequent request does not inherit the failed request's id.
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w2, req2)
	assert.NotEqual(t, w.Header().Get("X-Request-ID"), w2.Header().Get("X-Request-ID"))
}

func TestRequestPipeline_MetricsDisabled(t *testing.T) {
	router := newPipelineRouter(t, PipelineConfig{Metrics: nil}, func(r *gin.Engine) {
		r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestPipeline_WithSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestPipeline(PipelineConfig{Logger: logging.NewNop()}))
	router.Use(SecurityHeaders(true))
	router.GET("/api/v1/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestPipeline_ProductionEndToEnd(t *testing.T) {
	// Full production wiring: limiter + metrics + prometheus registry.
	limiter := NewRateLimiter(config.RateLimit{PerMinute: 60, AuthPerMinute: 10, SweepInterval: time.Hour})
	defer limiter.Stop()
	metrics := NewMetricsAggregator(logging.NewNop(), prometheus.NewRegistry())

	router := newPipelineRouter(t, PipelineConfig{
		Limiter:    limiter,
		Metrics:    metrics,
		Production: true,
	}, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })
	})

	// The stricter auth limit applies to /auth/ routes.
	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		router.ServeHTTP(last, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "Maximum 10 requests per minute")
}
