package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logging writes one structured line per request.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			fields := []zap.Field{
				zap.String("request_id", GetRequestIDFromRequest(r)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapper.statusCode),
				zap.Int("bytes", wrapper.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case wrapper.statusCode >= 500:
				logger.Error("Request failed", fields...)
			case wrapper.statusCode >= 400:
				logger.Info("Request rejected", fields...)
			default:
				logger.Debug("Request completed", fields...)
			}
		})
	}
}
