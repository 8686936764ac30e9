package frontend

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/gateway"
	"github.com/ajju10/portiq/internal/middleware"
	"github.com/ajju10/portiq/internal/proxy"
	"github.com/ajju10/portiq/internal/router"
)

func TestRouteErrorStatus(t *testing.T) {
	require.Equal(t, http.StatusNotFound, routeErrorStatus(router.ErrNotFound))
	require.Equal(t, http.StatusServiceUnavailable, routeErrorStatus(router.ErrNoUpstream))
	require.Equal(t, http.StatusMethodNotAllowed, routeErrorStatus(router.ErrMethodNotAllowed))
	require.Equal(t, http.StatusInternalServerError, routeErrorStatus(nil))
}

func TestHTTP_ServeHTTP_RoutesToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hello from upstream")
	}))
	defer upstream.Close()

	dir := t.TempDir()
	yamlDoc := `
version: 1
admin_api:
  addr: "127.0.0.1:9001"
listeners:
  - name: web
    addr: "127.0.0.1:8080"
    protocol: http
http:
  services:
    app:
      upstreams:
        - target: "` + upstream.URL + `"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/"
      listeners: ["web"]
      service: app
`
	path := filepath.Join(dir, "portiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	gw, err := gateway.New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	h := &HTTP{listenerName: "web", gw: gw, proxy: proxy.New(zap.NewNop()), logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello from upstream", rec.Body.String())
}

func TestHTTP_ServeHTTP_NoRouteReturns404(t *testing.T) {
	dir := t.TempDir()
	yamlDoc := `
version: 1
admin_api:
  addr: "127.0.0.1:9001"
listeners:
  - name: web
    addr: "127.0.0.1:8080"
    protocol: http
http:
  services:
    app:
      upstreams:
        - target: "http://127.0.0.1:9999"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/"
      listeners: ["web"]
      service: app
`
	path := filepath.Join(dir, "portiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	gw, err := gateway.New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	h := &HTTP{listenerName: "web", gw: gw, proxy: proxy.New(zap.NewNop()), logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "other.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachClientIP(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()

	// net.Pipe addresses stringify to "pipe", which has no port to
	// split; attachClientIP must fall back to the raw string rather
	// than erroring.
	ctx := attachClientIP(context.Background(), conn)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	require.NotEmpty(t, middleware.ClientIP(req))
}
