// Package config defines and loads the gateway's declarative configuration.
package config

import "time"

// Config is the complete, immutable gateway configuration once loaded.
type Config struct {
	Version   int              `yaml:"version"`
	AdminAPI  AdminAPIConfig   `yaml:"admin_api"`
	Log       LogConfig        `yaml:"log"`
	AccessLog LogConfig        `yaml:"access_log"`
	TLS       []TLSConfig      `yaml:"tls"`
	Listeners []ListenerConfig `yaml:"listeners"`
	HTTP      HTTPConfig       `yaml:"http"`
	TCP       *TCPConfig       `yaml:"tcp"`
}

// AdminAPIConfig configures the introspection/reload HTTP surface.
type AdminAPIConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures one of the two logical log sinks (gateway or access).
type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // "compact" or "json"
	FilePath string `yaml:"file_path"`
	Enabled  *bool  `yaml:"enabled"` // access_log only; nil means true
}

// IsEnabled reports whether this log target should emit records.
// AccessLog defaults to enabled when unset; the gateway log target always is.
func (c LogConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Protocol enumerates the listener wire protocols portiq understands.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
)

// ListenerConfig names a bind target and the protocol it speaks.
type ListenerConfig struct {
	Name     string   `yaml:"name"`
	Addr     string   `yaml:"addr"`
	Protocol Protocol `yaml:"protocol"`
}

// TLSConfig is one certificate/key pair, optionally SNI-scoped.
type TLSConfig struct {
	CertFile  string   `yaml:"cert_file"`
	KeyFile   string   `yaml:"key_file"`
	Default   bool     `yaml:"default"`
	Hostnames []string `yaml:"hostnames"`
}

// HTTPConfig is the HTTP routing graph: middlewares, services, and routes.
type HTTPConfig struct {
	Middlewares map[string]MiddlewareConfig `yaml:"middlewares"`
	Services    map[string]ServiceConfig    `yaml:"services"`
	Routes      []RouteConfig               `yaml:"routes"`
}

// TCPConfig mirrors HTTPConfig's service/route shape for raw TCP proxying.
type TCPConfig struct {
	Services map[string]ServiceConfig `yaml:"services"`
	Routes   []TCPRouteConfig         `yaml:"routes"`
}

// ServiceConfig is a named pool of upstreams.
type ServiceConfig struct {
	Upstreams []UpstreamConfig `yaml:"upstreams"`
}

// UpstreamConfig is one backend endpoint and its selection weight.
// Weight nil means 1; an explicit 0 keeps the upstream configured but
// excludes it from selection.
type UpstreamConfig struct {
	Target string `yaml:"target"`
	Weight *int   `yaml:"weight"`
}

// RouteConfig is a predicate over (listener, host, path) plus a target
// service and an ordered list of route-scoped middlewares.
type RouteConfig struct {
	Hosts       []string `yaml:"hosts"`
	Path        string   `yaml:"path"`
	Listeners   []string `yaml:"listeners"`
	Service     string   `yaml:"service"`
	Middlewares []string `yaml:"middlewares"`
}

// TLSMode controls how a TCP route treats an incoming connection.
type TLSMode string

const (
	TLSModeNone      TLSMode = ""
	TLSModeTerminate TLSMode = "terminate"
)

// TCPRouteConfig is the single-listener equivalent of RouteConfig for raw TCP.
type TCPRouteConfig struct {
	Listeners []string `yaml:"listeners"`
	Service   string   `yaml:"service"`
	TLS       TLSMode  `yaml:"tls"`
}

// MiddlewareKind tags the variant held by a MiddlewareConfig.
type MiddlewareKind string

const (
	MiddlewareAddPrefix MiddlewareKind = "add_prefix"
	MiddlewareRateLimit MiddlewareKind = "rate_limit"
)

// MiddlewareConfig is a tagged union over the built-in middleware kinds.
// Exactly the fields relevant to Kind are populated.
type MiddlewareConfig struct {
	Kind MiddlewareKind `yaml:"kind"`

	// AddPrefix fields.
	Prefix string `yaml:"prefix"`

	// RateLimit fields.
	Source RateLimitKeySourceConfig `yaml:"source"`
	Limit  int                      `yaml:"limit"`
	Period time.Duration            `yaml:"period"`
}

// RateLimitKeySourceKind tags the variant held by RateLimitKeySourceConfig.
type RateLimitKeySourceKind string

const (
	KeySourceIP            RateLimitKeySourceKind = "ip"
	KeySourceRequestHeader RateLimitKeySourceKind = "request_header"
)

// RateLimitKeySourceConfig picks how a rate-limit bucket key is derived.
type RateLimitKeySourceConfig struct {
	Kind   RateLimitKeySourceKind `yaml:"kind"`
	Header string                 `yaml:"header"` // optional for ip, required for request_header
}
