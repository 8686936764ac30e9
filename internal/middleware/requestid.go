package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

func init() {
	// Batch crypto/rand reads into a pool to avoid a syscall per UUID.
	uuid.EnableRandPool()
}

// RequestIDHeader is the header carrying the per-request identifier.
const RequestIDHeader = "x-request-id"

// RequestID generates a fresh UUIDv4 for every request and writes it to
// the request header before calling next. It never inspects or trusts an
// inbound request ID.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Set(RequestIDHeader, uuid.New().String())
			next.ServeHTTP(w, r)
		})
	}
}
