package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache is a middleware that caches successful JSON responses in
// Redis, keyed by a prefix plus the authenticated user ID. Only 200
// responses are stored. Redis failures fail open: the request falls
// through to the handler and the error is logged.
//
// The cache is per-user because the cached payload (the ranked task list)
// is user-specific. Writes go through SET with the configured TTL; there
// is no explicit invalidation, the short TTL bounds staleness.
func ResponseCache(client *redis.Client, keyPrefix string, ttl time.Duration, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = "guest"
			}
			cacheKey := keyPrefix + ":" + userID

			cached, err := client.Get(r.Context(), cacheKey).Bytes()
			if err == nil {
				if metrics != nil {
					metrics.IncCacheHits(keyPrefix)
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				if _, err := w.Write(cached); err != nil {
					slog.ErrorContext(r.Context(), "failed to write cached response", "error", err)
				}
				return
			}
			if err != redis.Nil {
				slog.WarnContext(r.Context(), "response cache unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if metrics != nil {
				metrics.IncCacheMisses(keyPrefix)
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK && rec.body.Len() > 0 {
				if err := client.Set(r.Context(), cacheKey, rec.body.Bytes(), ttl).Err(); err != nil {
					slog.WarnContext(r.Context(), "failed to store cached response", "error", err)
				}
			}
		})
	}
}

// recordingWriter tees the response body so it can be cached after the
// handler completes.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

// WriteHeader captures the status code before writing it.
func (rw *recordingWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write tees the data into the buffer.
func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// UpdateContext forwards context updates to the wrapped writer so error
// codes still reach the logging middleware through the cache layer.
func (rw *recordingWriter) UpdateContext(ctx context.Context) {
	UpdateResponseContext(rw.ResponseWriter, ctx)
}
