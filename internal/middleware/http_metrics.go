// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// normalizePath maps request paths to route patterns to prevent cardinality
// explosion in metrics labels. Unknown paths collapse to "/other".
func normalizePath(path string) string {
	// Exact matches for static routes (no normalization needed)
	staticRoutes := map[string]bool{
		"/":             true,
		"/tasks/urgent": true,
		"/health":       true,
		"/ready":        true,
		"/metrics":      true,
	}

	if staticRoutes[path] {
		return path
	}

	return "/other"
}

// HTTPMetrics is a middleware that records request duration, count, and
// response size per method/route/status.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w, r.Context())

			next.ServeHTTP(rw, r)

			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(rw.statusCode)
			metrics.ObserveHTTPRequest(r.Method, path, status, time.Since(start).Seconds())
			metrics.ObserveHTTPResponseSize(r.Method, path, float64(rw.size))
		})
	}
}
