// Package logging builds the application's structured logger. Production and
// staging emit line-delimited JSON; development gets a human-readable console
// encoder. Request-scoped fields (request_id, user_id) are attached via
// FromContext.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/requestctx"
)

// New creates the root logger for the service.
func New(cfg config.Logging, env config.Environment) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "text" || env == config.EnvDevelopment {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", "bookstore-api"),
		zap.String("environment", string(env)),
	), nil
}

// NewNop returns a no-op logger for tests.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// FromContext returns the logger enriched with the request correlation
// fields carried by ctx. Outside request handling it returns the logger
// unchanged.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if requestID := requestctx.RequestID(ctx); requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}
	if userID := requestctx.UserID(ctx); userID != "" {
		logger = logger.With(zap.String("user_id", userID))
	}
	return logger
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
