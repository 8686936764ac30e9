package frontend

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/gateway"
)

// dialTimeout bounds the connect attempt to the selected upstream.
const dialTimeout = 10 * time.Second

// TCP is the front end for one raw tcp Listener: it resolves the single
// route bound to the listener, optionally terminates TLS, and splices
// the client stream to the selected upstream bidirectionally.
type TCP struct {
	listenerName string
	addr         string
	gw           *gateway.Gateway
	logger       *zap.Logger
}

// NewTCP builds the accept loop for listener.
func NewTCP(listener config.ListenerConfig, gw *gateway.Gateway, logger *zap.Logger) *TCP {
	return &TCP{listenerName: listener.Name, addr: listener.Addr, gw: gw, logger: logger}
}

// Serve binds the listener's address and accepts connections until ctx
// is cancelled.
func (t *TCP) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				t.logger.Error("tcp accept failed", zap.String("listener", t.listenerName), zap.Error(err))
				return err
			}
		}
		go t.handleConn(conn)
	}
}

func (t *TCP) handleConn(conn net.Conn) {
	defer conn.Close()

	rt := t.gw.Snapshot()
	route, err := rt.Router.GetTCPRoute(t.listenerName)
	if err != nil {
		t.logger.Warn("no tcp route configured", zap.String("listener", t.listenerName), zap.Error(err))
		return
	}

	target, err := rt.Registry.LookupTCP(route.Service)
	if err != nil {
		t.logger.Warn("no tcp upstream available", zap.String("service", route.Service), zap.Error(err))
		return
	}

	clientConn := net.Conn(conn)
	if route.TLS {
		if rt.TLS == nil {
			t.logger.Error("tcp route requests tls termination but no tls is configured", zap.String("listener", t.listenerName))
			return
		}
		tlsConn := tls.Server(conn, rt.TLS.ServerConfig())
		if err := tlsConn.HandshakeContext(context.Background()); err != nil {
			t.logger.Error("tcp tls handshake failed", zap.Error(err))
			return
		}
		clientConn = tlsConn
	}

	upstreamConn, err := net.DialTimeout("tcp", target, dialTimeout)
	if err != nil {
		t.logger.Error("tcp upstream dial failed", zap.String("target", target), zap.Error(err))
		return
	}
	defer upstreamConn.Close()

	pipe(clientConn, upstreamConn)
}

// pipe splices client and upstream bidirectionally; either direction
// erroring or reaching EOF ends the connection.
func pipe(client, upstream net.Conn) {
	errCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(upstream, client)
		errCh <- err
	}()
	go func() {
		_, err := io.Copy(client, upstream)
		errCh <- err
	}()
	<-errCh
}
