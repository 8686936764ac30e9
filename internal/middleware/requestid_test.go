package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesHeader(t *testing.T) {
	var seen string
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	})

	h := RequestID()(terminal)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotEmpty(t, seen)
	require.Len(t, seen, 36) // canonical UUID string length
}

func TestRequestID_OverwritesInboundHeader(t *testing.T) {
	var first, second string
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second = r.Header.Get(RequestIDHeader)
	})

	h := RequestID()(terminal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	first = req.Header.Get(RequestIDHeader)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "client-supplied-id", first)
	require.NotEqual(t, first, second)
}
