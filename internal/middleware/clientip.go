package middleware

import (
	"context"
	"net/http"
)

type clientIPKey struct{}

// defaultClientIP is used whenever no connection-derived IP was attached
// to the request context.
const defaultClientIP = "127.0.0.1"

// WithClientIP attaches the connection's remote IP to ctx. The HTTP
// front end calls this once per connection via ConnContext, before any
// middleware runs, using net.Conn.RemoteAddr — never an inbound header.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the request's connection-derived client IP, or
// defaultClientIP if none was attached.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return defaultClientIP
}
