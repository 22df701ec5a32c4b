package observability

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	// CorrelationIDKey holds the request's correlation ID (string).
	CorrelationIDKey ctxKey = iota
	// LoggerKey holds the request-scoped *zap.Logger.
	LoggerKey
)

// LoggerFromContext returns the request-scoped logger, or fallback when none is set.
func LoggerFromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// CorrelationID returns the request's correlation ID or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}
