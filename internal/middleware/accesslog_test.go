package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog_SuccessLogsAtInfo(t *testing.T) {
	core, obs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := AccessLog(logger)(terminal)
	req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	req.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, obs.Len())
	entry := obs.All()[0]
	require.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	require.EqualValues(t, 200, fields["status"])
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, "/v1/x", fields["path"])
	require.Equal(t, "127.0.0.1", fields["client_ip"])
	require.Equal(t, "test-agent", fields["user_agent"])
	require.Equal(t, "abc-123", fields["request_id"])
}

func TestAccessLog_ErrorStatusLogsAtError(t *testing.T) {
	core, obs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	h := AccessLog(logger)(terminal)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, obs.Len())
	require.Equal(t, zapcore.ErrorLevel, obs.All()[0].Level)
}

func TestAccessLog_ImplicitOKWhenHandlerNeverCallsWriteHeader(t *testing.T) {
	core, obs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	h := AccessLog(logger)(terminal)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.EqualValues(t, 200, obs.All()[0].ContextMap()["status"])
}

func TestAccessLog_ClientIPFromContext(t *testing.T) {
	core, obs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := AccessLog(logger)(terminal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClientIP(req.Context(), "10.0.0.5"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "10.0.0.5", obs.All()[0].ContextMap()["client_ip"])
}
