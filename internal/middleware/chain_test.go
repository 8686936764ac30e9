package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChain_OrderingOuterToInner(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":before")
				next.ServeHTTP(w, r)
				order = append(order, name+":after")
			})
		}
	}

	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "terminal")
	})

	c := NewChain(tag("a"), tag("b"))
	h := c.Then(terminal)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a:before", "b:before", "terminal", "b:after", "a:after"}, order)
}

func TestChain_Empty(t *testing.T) {
	called := false
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := NewChain()
	c.Then(terminal).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}
