package middlewares

import (
	"context"
	"net/http"
	"time"

	"partners/partners/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags each request with a trace id and writes one line to
// request.log when the handler finishes. The trace id rides the context so
// LogDuration records can be correlated.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), logging.TraceIDKey, traceID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		logging.RequestLogger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("trace_id", traceID),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
