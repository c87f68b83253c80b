package services

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID tags ctx so that service logs can be correlated with the HTTP request or job.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggerFor(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if id := RequestIDFrom(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
