// Package observability carries the request-scoped logger through the
// service. Everything is emitted as JSON lines on stdout, which Cloud
// Run forwards to Cloud Logging unchanged.
package observability

import (
	"context"
	"log/slog"
	"os"
)

type requestIDKey struct{}

var base = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// WithRequestID tags the context with the id the HTTP middleware minted
// for this request. Event handlers inherit it through the bus, so one
// diary entry's whole cascade shares a single request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// LoggerFromContext returns the process logger, bound to the context's
// request id when one is present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return base.With("request_id", id)
	}
	return base
}
