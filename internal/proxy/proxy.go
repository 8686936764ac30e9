// Package proxy implements the terminal handler of every middleware
// chain: it forwards a request to the upstream the load balancer picked
// for it and streams the response back.
package proxy

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/middleware"
)

// clientTimeout bounds the whole upstream round trip; there is no
// per-stage timeout.
const clientTimeout = 30 * time.Second

const badGatewayBody = `<!DOCTYPE html>
<html>
<head><title>502 Bad Gateway</title></head>
<body>
<h1>502 Bad Gateway</h1>
<p>portiq could not reach the upstream service.</p>
</body>
</html>
`

// bodyMethods is the set of methods whose request body is collected and
// forwarded; all other methods are forwarded without a body.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Proxy forwards requests to upstream targets over a shared http.Client.
type Proxy struct {
	client *http.Client
	logger *zap.Logger
}

// New builds a Proxy. logger receives ERROR records for upstream failures.
func New(logger *zap.Logger) *Proxy {
	return &Proxy{
		client: &http.Client{Timeout: clientTimeout},
		logger: logger,
	}
}

// Handler returns the terminal handler for a request already routed to
// target, the selected upstream's base URL.
func (p *Proxy) Handler(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.serveUpstream(w, r, target)
	})
}

func (p *Proxy) serveUpstream(w http.ResponseWriter, r *http.Request, target string) {
	url := target + r.URL.RequestURI()

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, url, nil)
	if err != nil {
		p.logger.Error("build upstream request", zap.Error(err), zap.String("target", target))
		writeBadGateway(w)
		return
	}
	outReq.Header = r.Header.Clone()

	// r.Host already holds the Host header when present, falling back to
	// the request URI's authority (e.g. HTTP/2 :authority) otherwise.
	host := r.Host
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	setProxyHeaders(outReq.Header, middleware.ClientIP(r), host, proto)

	if bodyMethods[r.Method] {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			p.logger.Error("read request body", zap.Error(err))
			writeBadGateway(w)
			return
		}
		outReq.Body = io.NopCloser(bytes.NewReader(body))
		outReq.ContentLength = int64(len(body))
	}

	resp, err := p.client.Do(outReq)
	if err != nil {
		p.logger.Error("upstream request failed", zap.Error(err), zap.String("target", target))
		writeBadGateway(w)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if key == "Server" {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Server", "portiq")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// setProxyHeaders sets the forwarded-request headers: X-Forwarded-For
// is appended to if present, X-Forwarded-Host and X-Forwarded-Proto are
// set only if absent.
func setProxyHeaders(h http.Header, clientIP, host, proto string) {
	if prior := h.Get("X-Forwarded-For"); prior != "" {
		h.Set("X-Forwarded-For", prior+","+clientIP)
	} else {
		h.Set("X-Forwarded-For", clientIP)
	}
	if h.Get("X-Forwarded-Host") == "" {
		h.Set("X-Forwarded-Host", host)
	}
	if h.Get("X-Forwarded-Proto") == "" {
		h.Set("X-Forwarded-Proto", proto)
	}
}

func writeBadGateway(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Server", "portiq")
	w.WriteHeader(http.StatusBadGateway)
	io.WriteString(w, badGatewayBody)
}
