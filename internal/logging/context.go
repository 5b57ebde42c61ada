package logging

import "context"

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	jobIDKey     contextKey = "job_id"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the global one, tagged
// with the request and job ids found in ctx.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(loggerKey).(*Logger)
	if !ok {
		logger = global
	}
	return logger.WithContext(ctx)
}

// WithRequestID adds an HTTP request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithJobID adds an analysis job ID to the context
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

func extractContextFields(ctx context.Context) []interface{} {
	var fields []interface{}
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		fields = append(fields, "request_id", id)
	}
	if id, ok := ctx.Value(jobIDKey).(string); ok && id != "" {
		fields = append(fields, "job_id", id)
	}
	return fields
}
