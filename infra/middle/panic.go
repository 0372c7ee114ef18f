package middle

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mstgnz/shurjopay/infra/logger"
	"github.com/mstgnz/shurjopay/infra/response"
)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return PanicRecoveryWithCustomHandler(func(w http.ResponseWriter, r *http.Request, recovered any) {
		logger.Error("Panic recovered", fmt.Errorf("%v", recovered), logger.LogContext{
			RequestID: GetRequestID(r.Context()),
			Fields: map[string]any{
				"method": r.Method,
				"url":    r.URL.String(),
				"stack":  string(debug.Stack()),
			},
		})

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		response.Error(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("an unexpected error occurred"))
	})
}

// PanicRecoveryWithCustomHandler allows custom panic handling
func PanicRecoveryWithCustomHandler(handler func(http.ResponseWriter, *http.Request, any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					handler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
