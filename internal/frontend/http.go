// Package frontend implements the connection front ends: per listener,
// it accepts connections, optionally terminates TLS, and dispatches
// into the router + middleware chain or splices a raw TCP connection to
// an upstream. Routing decisions are re-resolved from the Gateway's
// current snapshot on every request, so a reload takes effect without
// touching established connections.
package frontend

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/gateway"
	"github.com/ajju10/portiq/internal/middleware"
	"github.com/ajju10/portiq/internal/proxy"
	"github.com/ajju10/portiq/internal/router"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second

	// shutdownDrain bounds how long Serve waits for in-flight requests
	// to finish once its context is cancelled. The process's own drain
	// window in cmd/portiq is a slightly longer outer guard on top of it.
	shutdownDrain = 5 * time.Second
)

// HTTP is the front end for one http or https Listener. It resolves the
// route, upstream, and middleware chain fresh from the Gateway's current
// snapshot on every request, so concurrent requests on the same
// connection can straddle a reload without ever seeing a mixed state.
type HTTP struct {
	listenerName string
	gw           *gateway.Gateway
	proxy        *proxy.Proxy
	logger       *zap.Logger
	server       *http.Server
}

// NewHTTP builds the http.Server for listener. When listener.Protocol is
// https, server.TLSConfig is wired to the Gateway's current TLS
// resolver; plain http listeners still multiplex HTTP/2 via h2c.
func NewHTTP(listener config.ListenerConfig, gw *gateway.Gateway, p *proxy.Proxy, logger *zap.Logger) (*HTTP, error) {
	h := &HTTP{
		listenerName: listener.Name,
		gw:           gw,
		proxy:        p,
		logger:       logger,
	}

	var handler http.Handler = h
	srv := &http.Server{
		Addr:              listener.Addr,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ConnContext:       attachClientIP,
		// TLS handshake and per-connection I/O failures are logged and
		// the connection dropped; they never propagate past the server.
		ErrorLog: zap.NewStdLog(logger.Named(listener.Name)),
	}

	if listener.Protocol == config.ProtocolHTTPS {
		snap := gw.Snapshot()
		if snap.TLS == nil {
			return nil, errNoTLS(listener.Name)
		}
		srv.TLSConfig = snap.TLS.ServerConfig()
		srv.Handler = handler
	} else {
		h2s := &http2.Server{}
		srv.Handler = h2c.NewHandler(handler, h2s)
	}

	h.server = srv
	return h, nil
}

func errNoTLS(listener string) error {
	return &tlsConfigError{listener: listener}
}

type tlsConfigError struct{ listener string }

func (e *tlsConfigError) Error() string {
	return "frontend: listener " + e.listener + " is https but no tls entries are configured"
}

// Serve accepts connections until ctx is cancelled, then stops taking new
// ones and returns once in-flight requests finish or shutdownDrain
// elapses.
func (h *HTTP) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}

	if h.server.TLSConfig != nil {
		ln = tls.NewListener(ln, h.server.TLSConfig)
	}

	errCh := make(chan error, 1)
	go func() {
		err := h.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
		defer cancel()
		return h.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ServeHTTP is the single handler for every request on this listener. It
// loads one Runtime snapshot, resolves the route and upstream, and runs
// the resulting middleware chain.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := h.gw.Snapshot()

	// r.Host already holds the Host header when present, falling back to
	// the request URI's authority otherwise; the router strips any port
	// itself before matching.
	host := r.Host
	route, err := rt.Router.GetHTTPRoute(h.listenerName, host, r.URL.Path)
	if err != nil {
		h.logger.Warn("route not matched",
			zap.String("listener", h.listenerName),
			zap.String("host", host),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		w.WriteHeader(routeErrorStatus(err))
		return
	}

	target, err := rt.Registry.LookupHTTP(route.Service)
	if err != nil {
		h.logger.Warn("no upstream available",
			zap.String("service", route.Service), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	chain := rt.ChainFor(route)
	chain.Then(h.proxy.Handler(target)).ServeHTTP(w, r)
}

func routeErrorStatus(err error) int {
	switch {
	case errors.Is(err, router.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, router.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, router.ErrNoUpstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// attachClientIP is the http.Server ConnContext hook: it records the raw
// TCP peer address once per connection, before any middleware or handler
// runs, so the client IP extension is never influenced by request
// headers. Inbound X-Forwarded-For is never trusted as the local client
// IP.
func attachClientIP(ctx context.Context, c net.Conn) context.Context {
	host, _, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		host = c.RemoteAddr().String()
	}
	return middleware.WithClientIP(ctx, host)
}
