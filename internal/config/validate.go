package config

import "fmt"

// Validate checks a Config against its structural invariants and returns
// a single-sentence, field-naming error for the first violation found.
func Validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("version: must equal 1, got %d", cfg.Version)
	}
	if len(cfg.Listeners) == 0 {
		return fmt.Errorf("listeners: at least one listener is required")
	}

	listenerNames, err := validateListeners(cfg.Listeners)
	if err != nil {
		return err
	}

	if err := validateTLS(cfg.TLS, cfg.Listeners); err != nil {
		return err
	}

	if err := validateHTTP(cfg.HTTP, listenerNames); err != nil {
		return err
	}

	if cfg.TCP != nil {
		if err := validateTCP(*cfg.TCP, listenerNames); err != nil {
			return err
		}
	}

	return nil
}

func validateListeners(listeners []ListenerConfig) (map[string]bool, error) {
	names := make(map[string]bool, len(listeners))
	for i, l := range listeners {
		if l.Name == "" {
			return nil, fmt.Errorf("listeners[%d].name: must not be empty", i)
		}
		if names[l.Name] {
			return nil, fmt.Errorf("listeners[%d].name: duplicate listener name %q", i, l.Name)
		}
		names[l.Name] = true

		if l.Addr == "" {
			return nil, fmt.Errorf("listeners[%d].addr: must not be empty", i)
		}

		switch l.Protocol {
		case ProtocolHTTP, ProtocolHTTPS, ProtocolTCP:
		default:
			return nil, fmt.Errorf("listeners[%d].protocol: unknown protocol %q", i, l.Protocol)
		}
	}
	return names, nil
}

func validateTLS(tlsList []TLSConfig, listeners []ListenerConfig) error {
	needsTLS := false
	for _, l := range listeners {
		if l.Protocol == ProtocolHTTPS {
			needsTLS = true
		}
	}

	if needsTLS && len(tlsList) == 0 {
		return fmt.Errorf("tls: at least one entry is required when a listener uses protocol https")
	}

	if len(tlsList) == 0 {
		return nil
	}

	defaults := 0
	for i, t := range tlsList {
		if t.CertFile == "" {
			return fmt.Errorf("tls[%d].cert_file: must not be empty", i)
		}
		if t.KeyFile == "" {
			return fmt.Errorf("tls[%d].key_file: must not be empty", i)
		}
		if t.Default {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("tls: exactly one entry must have default=true, found %d", defaults)
	}

	return nil
}

func validateHTTP(h HTTPConfig, listenerNames map[string]bool) error {
	for name, mw := range h.Middlewares {
		if err := validateMiddleware(name, mw); err != nil {
			return err
		}
	}

	for name, svc := range h.Services {
		if err := validateService("http", name, svc); err != nil {
			return err
		}
	}

	for i, route := range h.Routes {
		if err := validateRoute(i, route, listenerNames, h.Services, h.Middlewares); err != nil {
			return err
		}
	}

	return nil
}

func validateMiddleware(name string, mw MiddlewareConfig) error {
	switch mw.Kind {
	case MiddlewareAddPrefix:
		if mw.Prefix == "" {
			return fmt.Errorf("http.middlewares[%s].prefix: must not be empty", name)
		}
	case MiddlewareRateLimit:
		if mw.Limit <= 0 {
			return fmt.Errorf("http.middlewares[%s].limit: must be > 0", name)
		}
		if mw.Period <= 0 {
			return fmt.Errorf("http.middlewares[%s].period: must be > 0", name)
		}
		switch mw.Source.Kind {
		case KeySourceIP:
		case KeySourceRequestHeader:
			if mw.Source.Header == "" {
				return fmt.Errorf("http.middlewares[%s].source.header: required for request_header key source", name)
			}
		default:
			return fmt.Errorf("http.middlewares[%s].source.kind: unknown rate limit key source %q", name, mw.Source.Kind)
		}
	default:
		return fmt.Errorf("http.middlewares[%s].kind: unknown middleware kind %q", name, mw.Kind)
	}
	return nil
}

func validateService(section, name string, svc ServiceConfig) error {
	for i, u := range svc.Upstreams {
		if u.Target == "" {
			return fmt.Errorf("%s.services[%s].upstreams[%d].target: must not be empty", section, name, i)
		}
		if u.Weight != nil && *u.Weight < 0 {
			return fmt.Errorf("%s.services[%s].upstreams[%d].weight: must be >= 0", section, name, i)
		}
	}
	return nil
}

func validateRoute(idx int, r RouteConfig, listenerNames map[string]bool, services map[string]ServiceConfig, middlewares map[string]MiddlewareConfig) error {
	if len(r.Hosts) == 0 && r.Path == "" {
		return fmt.Errorf("http.routes[%d]: at least one of hosts or path is required", idx)
	}
	if len(r.Listeners) == 0 {
		return fmt.Errorf("http.routes[%d].listeners: must not be empty", idx)
	}
	for _, ln := range r.Listeners {
		if !listenerNames[ln] {
			return fmt.Errorf("http.routes[%d].listeners: unknown listener %q", idx, ln)
		}
	}
	if r.Service == "" {
		return fmt.Errorf("http.routes[%d].service: must not be empty", idx)
	}
	if _, ok := services[r.Service]; !ok {
		return fmt.Errorf("http.routes[%d].service: unknown service %q", idx, r.Service)
	}
	for _, mw := range r.Middlewares {
		if _, ok := middlewares[mw]; !ok {
			return fmt.Errorf("http.routes[%d].middlewares: unknown middleware %q", idx, mw)
		}
	}
	return nil
}

func validateTCP(tcp TCPConfig, listenerNames map[string]bool) error {
	for name, svc := range tcp.Services {
		if err := validateService("tcp", name, svc); err != nil {
			return err
		}
	}
	for i, r := range tcp.Routes {
		if len(r.Listeners) == 0 {
			return fmt.Errorf("tcp.routes[%d].listeners: must not be empty", i)
		}
		for _, ln := range r.Listeners {
			if !listenerNames[ln] {
				return fmt.Errorf("tcp.routes[%d].listeners: unknown listener %q", i, ln)
			}
		}
		if r.Service == "" {
			return fmt.Errorf("tcp.routes[%d].service: must not be empty", i)
		}
		if _, ok := tcp.Services[r.Service]; !ok {
			return fmt.Errorf("tcp.routes[%d].service: unknown service %q", i, r.Service)
		}
	}
	return nil
}
