// Package registry holds the immutable service-name → load-balancer maps
// built once per GatewayConfig.
package registry

import (
	"errors"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/loadbalancer"
)

// ErrNoUpstream is returned when a service name is unknown, or is known
// but its load balancer currently has no selectable upstream.
var ErrNoUpstream = errors.New("no upstream available")

// Service is a named bag of upstreams with a selection policy.
type Service struct {
	Name string
	LB   *loadbalancer.LoadBalancer
}

// Registry holds two immutable maps, one for HTTP services and one for
// TCP services. No entries are added after construction; a reload builds
// a brand new Registry and swaps it in wholesale.
type Registry struct {
	http map[string]*Service
	tcp  map[string]*Service
}

// New builds a Registry from the http and tcp service configuration maps.
func New(httpServices, tcpServices map[string]config.ServiceConfig) *Registry {
	return &Registry{
		http: buildServices(httpServices),
		tcp:  buildServices(tcpServices),
	}
}

func buildServices(cfgs map[string]config.ServiceConfig) map[string]*Service {
	services := make(map[string]*Service, len(cfgs))
	for name, svcCfg := range cfgs {
		upstreams := make([]loadbalancer.Upstream, len(svcCfg.Upstreams))
		for i, u := range svcCfg.Upstreams {
			weight := 1
			if u.Weight != nil {
				weight = *u.Weight
			}
			upstreams[i] = loadbalancer.Upstream{Target: u.Target, Weight: weight}
		}
		services[name] = &Service{Name: name, LB: loadbalancer.New(upstreams)}
	}
	return services
}

// LookupHTTP resolves an HTTP service name to a selected upstream target.
func (r *Registry) LookupHTTP(name string) (string, error) {
	return lookup(r.http, name)
}

// LookupTCP resolves a TCP service name to a selected upstream target.
func (r *Registry) LookupTCP(name string) (string, error) {
	return lookup(r.tcp, name)
}

func lookup(services map[string]*Service, name string) (string, error) {
	svc, ok := services[name]
	if !ok {
		return "", ErrNoUpstream
	}
	u, ok := svc.LB.Select()
	if !ok {
		return "", ErrNoUpstream
	}
	return u.Target, nil
}
