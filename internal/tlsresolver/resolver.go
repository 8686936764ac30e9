// Package tlsresolver builds an SNI-aware certificate resolver from the
// gateway's configured TLS entries: a hostname-keyed map consulted on
// every ClientHello, with a designated default certificate as fallback.
package tlsresolver

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/ajju10/portiq/internal/config"
)

// Resolver answers ClientHello SNI lookups: an exact hostname match wins,
// otherwise the default certificate is returned. Certificates are parsed
// once at construction and never mutated, so a single Resolver is safe
// for concurrent use across every HTTPS listener.
type Resolver struct {
	byHost map[string]*tls.Certificate
	def    *tls.Certificate
}

// Build loads every cert/key pair in entries and returns a Resolver. It
// returns an error if no entry is marked default, or if any cert/key pair
// fails to load. config.Validate already enforces exactly one default
// entry but never reads the files, so a load failure here means the files
// on disk are missing or do not hold a matching cert/key pair.
func Build(entries []config.TLSConfig) (*Resolver, error) {
	r := &Resolver{byHost: make(map[string]*tls.Certificate)}

	for _, e := range entries {
		cert, err := tls.LoadX509KeyPair(e.CertFile, e.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tls: load cert/key %s/%s: %w", e.CertFile, e.KeyFile, err)
		}
		if cert.Leaf == nil {
			leaf, err := x509.ParseCertificate(cert.Certificate[0])
			if err != nil {
				return nil, fmt.Errorf("tls: parse cert %s: %w", e.CertFile, err)
			}
			cert.Leaf = leaf
		}

		if e.Default {
			c := cert
			r.def = &c
		}
		for _, host := range e.Hostnames {
			c := cert
			r.byHost[host] = &c
		}
	}

	if r.def == nil {
		return nil, fmt.Errorf("tls: no entry marked default")
	}
	return r, nil
}

// ServerConfig returns a *tls.Config wired to this resolver's
// GetCertificate callback, advertising h2 ahead of http/1.1 over ALPN.
func (r *Resolver) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.getCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
	}
}

func (r *Resolver) getCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if hello.ServerName != "" {
		if cert, ok := r.byHost[hello.ServerName]; ok {
			return cert, nil
		}
	}
	return r.def, nil
}
