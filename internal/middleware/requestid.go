// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDHeader carries the request ID on both request and response.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds inherited request IDs. The ID is echoed in
// responses and attached to every log line, so an oversized or
// non-printable upstream value is replaced rather than propagated.
const maxRequestIDLen = 128

// RequestID assigns each request an ID and stores it in the context.
// An ID supplied by the caller via X-Request-ID is kept when it passes
// the sanity check, so IDs correlate across service hops; otherwise a
// fresh UUID is generated. The ID is always echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID reports whether an inherited ID is safe to propagate:
// non-empty, bounded, and printable ASCII without whitespace.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// GetRequestID returns the request ID from context, or "" if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
