package gateway

import (
	"io"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/middleware"
	"github.com/ajju10/portiq/internal/middleware/ratelimit"
	"github.com/ajju10/portiq/internal/router"
)

// buildNamedMiddlewares constructs one live middleware.Middleware per
// entry in http.middlewares. A rate_limit entry owns a TokenBucket whose
// state (and background eviction goroutine) lives for the lifetime of
// the Runtime that built it, so a reload starts every key with a fresh
// bucket. The returned closers stop the old generation's sweeps when a
// reload discards it; requests still holding that generation keep
// limiting against its buckets.
func buildNamedMiddlewares(cfgs map[string]config.MiddlewareConfig) (map[string]middleware.Middleware, []io.Closer) {
	out := make(map[string]middleware.Middleware, len(cfgs))
	var closers []io.Closer
	for name, mw := range cfgs {
		switch mw.Kind {
		case config.MiddlewareAddPrefix:
			out[name] = middleware.AddPrefix(mw.Prefix)
		case config.MiddlewareRateLimit:
			limiter, tb := ratelimit.New(ratelimit.Config{
				Limit:  mw.Limit,
				Period: mw.Period,
				Source: ratelimit.KeySource{
					Kind:   ratelimit.KeySourceKind(mw.Source.Kind),
					Header: mw.Source.Header,
				},
			})
			out[name] = limiter
			closers = append(closers, tb)
		}
	}
	return out, closers
}

// buildChains precomputes one middleware.Chain per HTTP route: recovery
// and request_id are always outermost, access_log follows when enabled,
// then the route's own declared middlewares in declaration order. The
// chain is cached by route pointer so the HTTP front end never rebuilds
// it per request -- only the terminal send_upstream handler, which
// depends on the upstream picked for that specific request, is attached
// per call.
func buildChains(routes []*router.HTTPRoute, named map[string]middleware.Middleware, logger, accessLogger *zap.Logger, accessEnabled bool) map[*router.HTTPRoute]middleware.Chain {
	chains := make(map[*router.HTTPRoute]middleware.Chain, len(routes))
	for _, route := range routes {
		mws := []middleware.Middleware{middleware.Recovery(logger), middleware.RequestID()}
		if accessEnabled {
			mws = append(mws, middleware.AccessLog(accessLogger))
		}
		for _, name := range route.Middlewares {
			if mw, ok := named[name]; ok {
				mws = append(mws, mw)
			}
		}
		chains[route] = middleware.NewChain(mws...)
	}
	return chains
}
