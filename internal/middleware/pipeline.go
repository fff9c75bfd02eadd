package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/bookstore/internal/logging"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

// Gin context key under which the correlation id is stored for handlers.
const ContextKeyRequestID = "request_id"

// Response headers attached to every response.
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderResponseTime = "X-Response-Time"
)

// RateLimitedResponse is the body returned on rate-limit rejection.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// InternalErrorResponse is the generic body returned when the downstream
// handler fails. It carries the correlation id and no internal detail.
type InternalErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// PipelineConfig carries the pipeline's collaborators. Nil Limiter or
// Metrics disables the corresponding stage.
type PipelineConfig struct {
	Logger         *zap.Logger
	Limiter        *RateLimiter
	Metrics        *MetricsAggregator
	Production     bool          // gates rate limiting and error detail
	RequestTimeout time.Duration // 0 disables the per-request timeout
}

// RequestPipeline orchestrates context propagation, rate limiting, metrics
// and request logging around every route. It is composed once at startup.
//
// Per request: a fresh correlation id is generated before any other step;
// the rate check runs only in production; handler panics become a generic
// 500 carrying the correlation id; metrics and the completion log run on
// every exit path, including rejection and failure.
func RequestPipeline(cfg PipelineConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New().String()
		ctx := requestctx.WithRequestID(c.Request.Context(), requestID)
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextKeyRequestID, requestID)

		// The timing header can only be computed once the response is about
		// to be written, so a wrapping writer injects it at first write.
		tw := &timingWriter{ResponseWriter: c.Writer, start: start, requestID: requestID}
		c.Writer = tw

		method := c.Request.Method
		path := c.Request.URL.Path
		clientIP := c.ClientIP()

		logger := logging.FromContext(c.Request.Context(), cfg.Logger)
		logger.Info("request started",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("ip_address", clientIP),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		defer func() {
			if r := recover(); r != nil {
				logger.Error("request failed",
					zap.String("method", method),
					zap.String("path", path),
					zap.Any("error", r),
					zap.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, InternalErrorResponse{
					Error:     "Internal Server Error",
					RequestID: requestID,
					Message:   "An unexpected error occurred",
				})
			}
			finishRequest(c, cfg, logger, start, method, path)
		}()

		if cfg.Limiter != nil && cfg.Production {
			if decision := cfg.Limiter.Allow(clientIP, path, time.Now()); !decision.Allowed {
				logger.Warn("rate limit exceeded",
					zap.String("ip_address", clientIP),
					zap.String("path", path),
					zap.Int("rate_limit", decision.Limit),
				)
				c.Header("Retry-After", "60")
				c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitedResponse{
					Error:      "Too Many Requests",
					Message:    fmt.Sprintf("Rate limit exceeded. Maximum %d requests per minute.", decision.Limit),
					RetryAfter: 60,
				})
				return
			}
		}

		c.Next()
	}
}

// finishRequest records metrics and the completion log line. It runs on
// every exit path; failures inside it are contained.
func finishRequest(c *gin.Context, cfg PipelineConfig, logger *zap.Logger, start time.Time, method, path string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("request instrumentation failed", zap.Any("panic", r))
		}
	}()

	durationMS := float64(time.Since(start)) / float64(time.Millisecond)
	status := c.Writer.Status()

	if cfg.Metrics != nil {
		cfg.Metrics.Record(status, method, path, durationMS)
	}

	// Re-derive from the final request context: auth middleware attaches
	// the user id after the pipeline's entry logger was built.
	logger = logging.FromContext(c.Request.Context(), cfg.Logger)
	logger.Info("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("endpoint", method+" "+path),
		zap.Int("status_code", status),
		zap.Float64("duration_ms", durationMS),
	)
}

// timingWriter injects X-Request-ID and X-Response-Time just before the
// first byte of the response is written, when the total handling duration
// is known.
type timingWriter struct {
	gin.ResponseWriter
	start       time.Time
	requestID   string
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(code int) {
	w.injectHeaders()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) WriteHeaderNow() {
	w.injectHeaders()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timingWriter) Write(b []byte) (int, error) {
	w.injectHeaders()
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) WriteString(s string) (int, error) {
	w.injectHeaders()
	return w.ResponseWriter.WriteString(s)
}

func (w *timingWriter) injectHeaders() {
	if w.wroteHeader || w.ResponseWriter.Written() {
		return
	}
	w.wroteHeader = true
	elapsed := float64(time.Since(w.start)) / float64(time.Millisecond)
	w.Header().Set(HeaderRequestID, w.requestID)
	w.Header().Set(HeaderResponseTime, fmt.Sprintf("%.2fms", elapsed))
}
