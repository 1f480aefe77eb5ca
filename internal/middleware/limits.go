package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultMaxRequestSize caps request bodies. Notes are the largest thing
	// the dashboard sends and stay far below it.
	DefaultMaxRequestSize int64 = 1 << 20

	// DefaultRequestTimeout leaves room for a slow model call
	DefaultRequestTimeout = 60 * time.Second
)

// MaxRequestSize rejects bodies over maxBytes up front when the length is
// declared, and cuts off streamed bodies that grow past it
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large", nopLogger)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ContentType requires a JSON Content-Type on requests that carry a body.
// Bodiless POSTs such as toggles, timer events and journal prompts pass through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) {
			contentType := strings.ToLower(r.Header.Get("Content-Type"))
			switch {
			case contentType == "":
				respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", nopLogger)
				return
			case !strings.HasPrefix(contentType, "application/json"):
				respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", nopLogger)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return r.ContentLength != 0
	}
	return false
}

// Timeout bounds how long a handler may run. The handler's context is
// cancelled at the deadline, which aborts any in-flight model call.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	body, _ := json.Marshal(ErrorResponse{
		Error:   "Request Timeout",
		Message: "The request took too long",
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
