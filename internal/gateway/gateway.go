// Package gateway composes the router, service registry, and per-route
// middleware chains built from one configuration generation into a
// single immutable Runtime, and publishes it through one atomic pointer
// so the request plane never takes a lock to dispatch.
package gateway

import (
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/middleware"
	"github.com/ajju10/portiq/internal/registry"
	"github.com/ajju10/portiq/internal/router"
	"github.com/ajju10/portiq/internal/tlsresolver"
)

// Runtime is one immutable snapshot of the routing and service graph,
// built from a single GatewayConfig. It is never mutated after
// construction; a reload builds a fresh Runtime and the Gateway swaps it
// in wholesale.
type Runtime struct {
	Router   *router.Router
	Registry *registry.Registry
	TLS      *tlsresolver.Resolver // nil when no TLS entries are configured

	chains  map[*router.HTTPRoute]middleware.Chain
	applied *config.Config
	closers []io.Closer
}

// close releases background resources owned by this generation (the
// rate-limit sweep goroutines). In-flight requests still holding the
// snapshot keep working; only idle eviction stops.
func (rt *Runtime) close() {
	for _, c := range rt.closers {
		c.Close()
	}
}

// ChainFor returns the precomputed middleware chain for route. Every
// route returned by Router.HTTPRoutes() has an entry; a route obtained
// any other way is a programmer error.
func (rt *Runtime) ChainFor(route *router.HTTPRoute) middleware.Chain {
	return rt.chains[route]
}

// AppliedConfig returns the configuration this Runtime was built from.
func (rt *Runtime) AppliedConfig() *config.Config {
	return rt.applied
}

func buildRuntime(cfg *config.Config, logger, accessLogger *zap.Logger) (*Runtime, error) {
	reg := registry.New(cfg.HTTP.Services, tcpServiceConfigs(cfg))
	rtr := buildRouter(cfg)
	named, closers := buildNamedMiddlewares(cfg.HTTP.Middlewares)
	chains := buildChains(rtr.HTTPRoutes(), named, logger, accessLogger, cfg.AccessLog.IsEnabled())

	var tlsResolver *tlsresolver.Resolver
	if len(cfg.TLS) > 0 {
		var err error
		tlsResolver, err = tlsresolver.Build(cfg.TLS)
		if err != nil {
			return nil, err
		}
	}

	return &Runtime{
		Router:   rtr,
		Registry: reg,
		TLS:      tlsResolver,
		chains:   chains,
		applied:  cfg,
		closers:  closers,
	}, nil
}

// Gateway owns the single atomic reference cell the whole request plane
// (and the admin API) reads per dispatch. Reload re-parses the config
// file, rejects any change to the static fields, and otherwise publishes
// a freshly built Runtime; in-flight requests keep running against the
// Runtime they already captured.
type Gateway struct {
	state        atomic.Pointer[Runtime]
	loader       *config.Loader
	path         string
	logger       *zap.Logger
	accessLogger *zap.Logger
}

// New loads path through loader, builds the initial Runtime, and
// publishes it.
func New(path string, loader *config.Loader, logger, accessLogger *zap.Logger) (*Gateway, error) {
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	rt, err := buildRuntime(cfg, logger, accessLogger)
	if err != nil {
		return nil, fmt.Errorf("build runtime: %w", err)
	}

	g := &Gateway{
		loader:       loader,
		path:         path,
		logger:       logger,
		accessLogger: accessLogger,
	}
	g.state.Store(rt)
	return g, nil
}

// Snapshot returns the current Runtime. Safe for concurrent use; the
// returned value is immutable and stays valid even after a concurrent
// Reload swaps in a new one.
func (g *Gateway) Snapshot() *Runtime {
	return g.state.Load()
}

// Reload re-parses and revalidates the config at g's path, rejects the
// reload if any static field differs from the currently applied config,
// and otherwise atomically replaces the published Runtime.
func (g *Gateway) Reload() error {
	cfg, err := g.loader.Load(g.path)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	current := g.Snapshot()
	if !config.StaticFieldsEqual(current.applied, cfg) {
		return fmt.Errorf("reload: version, admin_api, log, access_log, tls, and listeners cannot change via reload")
	}

	rt, err := buildRuntime(cfg, g.logger, g.accessLogger)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	g.state.Store(rt)
	current.close()
	return nil
}
