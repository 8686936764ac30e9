package gateway

import (
	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/router"
)

// buildRouter translates the validated config's route declarations into
// the router package's runtime route shapes. One router.TCPRoute is
// created per (route, listener) pair, since the router looks TCP routes
// up by a single listener name.
func buildRouter(cfg *config.Config) *router.Router {
	httpRoutes := make([]*router.HTTPRoute, len(cfg.HTTP.Routes))
	for i, rc := range cfg.HTTP.Routes {
		httpRoutes[i] = &router.HTTPRoute{
			Hosts:       rc.Hosts,
			Path:        rc.Path,
			Listeners:   toSet(rc.Listeners),
			Service:     rc.Service,
			Middlewares: rc.Middlewares,
		}
	}

	var tcpRoutes []*router.TCPRoute
	if cfg.TCP != nil {
		for _, rc := range cfg.TCP.Routes {
			for _, listener := range rc.Listeners {
				tcpRoutes = append(tcpRoutes, &router.TCPRoute{
					Listener: listener,
					Service:  rc.Service,
					TLS:      rc.TLS == config.TLSModeTerminate,
				})
			}
		}
	}

	return router.New(httpRoutes, tcpRoutes)
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func tcpServiceConfigs(cfg *config.Config) map[string]config.ServiceConfig {
	if cfg.TCP == nil {
		return nil
	}
	return cfg.TCP.Services
}
