package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
)

const baseYAML = `
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
        - target: "http://127.0.0.1:9100"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/"
      listeners: ["web"]
      service: app
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "portiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestGateway_NewBuildsInitialRuntime(t *testing.T) {
	path := writeConfig(t, baseYAML)
	g, err := New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	rt := g.Snapshot()
	require.NotNil(t, rt)

	route, err := rt.Router.GetHTTPRoute("web", "example.com", "/")
	require.NoError(t, err)
	require.Equal(t, "app", route.Service)

	target, err := rt.Registry.LookupHTTP("app")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9100", target)

	require.NotNil(t, rt.ChainFor(route))
}

func TestGateway_ReloadSwapsRuntimeOnRouteChange(t *testing.T) {
	path := writeConfig(t, baseYAML)
	g, err := New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	before := g.Snapshot()

	changed := `
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
        - target: "http://127.0.0.1:9200"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/"
      listeners: ["web"]
      service: app
`
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o600))
	require.NoError(t, g.Reload())

	after := g.Snapshot()
	require.NotSame(t, before, after)

	target, err := after.Registry.LookupHTTP("app")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9200", target)
}

func TestGateway_BuildsConfiguredMiddlewaresAndSurvivesReload(t *testing.T) {
	doc := `
version: 1
admin_api:
  addr: "127.0.0.1:9001"
listeners:
  - name: web
    addr: "127.0.0.1:8080"
    protocol: http
http:
  middlewares:
    prefixer:
      kind: add_prefix
      prefix: "/internal"
    limiter:
      kind: rate_limit
      source:
        kind: ip
      limit: 5
      period: 60s
  services:
    app:
      upstreams:
        - target: "http://127.0.0.1:9100"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/v1/*"
      listeners: ["web"]
      service: app
      middlewares: ["prefixer", "limiter"]
`
	path := writeConfig(t, doc)
	g, err := New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	rt := g.Snapshot()
	route, err := rt.Router.GetHTTPRoute("web", "example.com", "/v1/x")
	require.NoError(t, err)
	require.Equal(t, []string{"prefixer", "limiter"}, route.Middlewares)
	require.NotNil(t, rt.ChainFor(route))

	// A reload rebuilds the limiter state and stops the old generation's
	// background sweep without disturbing the new snapshot.
	require.NoError(t, g.Reload())
	after := g.Snapshot()
	require.NotSame(t, rt, after)

	route, err = after.Router.GetHTTPRoute("web", "example.com", "/v1/x")
	require.NoError(t, err)
	require.NotNil(t, after.ChainFor(route))
}

func TestGateway_ReloadRejectsAdminAPIChange(t *testing.T) {
	path := writeConfig(t, baseYAML)
	g, err := New(path, config.NewLoader(), zap.NewNop(), zap.NewNop())
	require.NoError(t, err)

	changed := `
version: 1
admin_api:
  addr: "127.0.0.1:9002"
listeners:
  - name: web
    addr: "127.0.0.1:8080"
    protocol: http
http:
  services:
    app:
      upstreams:
        - target: "http://127.0.0.1:9100"
          weight: 1
  routes:
    - hosts: ["example.com"]
      path: "/"
      listeners: ["web"]
      service: app
`
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o600))
	err = g.Reload()
	require.Error(t, err)
}
