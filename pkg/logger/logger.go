package logger

import (
	"context"

	"teamtracker/pkg/config"
	"teamtracker/pkg/trace"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is the service field on every log line.
const ServiceName = "teamtracker-api"

// NewLogger builds a zap logger, production JSON unless development is set.
// Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.Level); err == nil && cfg.Level != "" {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.InitialFields = map[string]any{"service": ServiceName}

	l, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace returns logger with the trace_id from ctx attached.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
