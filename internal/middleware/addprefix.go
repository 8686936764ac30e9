package middleware

import (
	"net/http"
	"net/url"
)

// AddPrefix rewrites the request URI to prefix+original_path, preserving
// the query string. The rewritten URI is checked on every request; an
// invalid one is a programmer error (a malformed prefix got past
// validation), so it is reported as a 500, not a 4xx.
func AddPrefix(prefix string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rewritten := prefix + r.URL.Path
			u, err := url.ParseRequestURI(withQuery(rewritten, r.URL.RawQuery))
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			r.URL = u
			next.ServeHTTP(w, r)
		})
	}
}

func withQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
