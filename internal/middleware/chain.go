// Package middleware implements the per-request handler chain: global
// stages (panic recovery, request ID, and access logging when enabled)
// wrapped around whatever middlewares a route declares, terminating in
// the upstream proxy call.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered, immutable sequence of middlewares.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain in the given order. The first middleware is
// the outermost wrapper: it sees the request first and the response last.
func NewChain(middlewares ...Middleware) Chain {
	return Chain{middlewares: middlewares}
}

// Then wraps terminal with every middleware in the chain and returns the
// composed handler.
func (c Chain) Then(terminal http.Handler) http.Handler {
	h := terminal
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		h = c.middlewares[i](h)
	}
	return h
}
