package middle

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mstgnz/shurjopay/infra/logger"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// GetRequestID returns the request ID stored by RequestLoggingMiddleware
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// RequestLoggingMiddleware tags every request with an ID (reusing the
// caller's X-Request-ID when present) and logs method, path, status and latency.
func RequestLoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))

			logger.Debug("HTTP request", logger.LogContext{
				RequestID: requestID,
				Fields: map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      rw.statusCode,
					"duration_ms": time.Since(start).Milliseconds(),
					"client_ip":   GetClientIP(r),
				},
			})
		})
	}
}
