package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/logging"
)

// statusWriter records the status code a handler wrote, defaulting to
// 200 if WriteHeader is never called explicitly.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLog records one structured entry per request to logger: method,
// path, client IP, user agent, request ID, status, and duration. 2xx/3xx
// responses log at INFO; everything else logs at ERROR.
func AccessLog(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			method := r.Method
			path := r.URL.Path
			userAgent := r.UserAgent()
			clientIP := ClientIP(r)

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			requestID := r.Header.Get(RequestIDHeader)

			fields := []zap.Field{
				zap.String("target", logging.AccessTarget),
				zap.Int("status", status),
				zap.String("method", method),
				zap.String("path", path),
				zap.Int64("duration_ms", duration.Milliseconds()),
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
				zap.String("request_id", requestID),
			}

			if status >= 200 && status < 400 {
				logger.Info("request", fields...)
			} else {
				logger.Error("request", fields...)
			}
		})
	}
}
