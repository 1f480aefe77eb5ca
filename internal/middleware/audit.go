package middleware

import (
	"net/http"

	logpkg "github.com/benvon/itsdone/internal/logger"
	"github.com/benvon/itsdone/internal/request"
	"go.uber.org/zap"
)

// Audit logs requests that were turned away and every successful change to
// dashboard state
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("request_id", request.IDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}

			switch status := wrapped.statusCode; {
			case status == http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields...)
			case status == http.StatusRequestEntityTooLarge || status == http.StatusUnsupportedMediaType:
				logger.Warn("request_rejected", append(fields, zap.Int("status_code", status))...)
			case status < http.StatusBadRequest && isMutation(r.Method):
				logger.Info("state_mutation", append(fields, zap.Int("status_code", status))...)
			}
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
