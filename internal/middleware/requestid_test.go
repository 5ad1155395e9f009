package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Fatal("expected generated request ID in context")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("expected a UUID, got %q", got)
	}
	if rr.Header().Get("X-Request-ID") != got {
		t.Errorf("expected response header to carry the request ID")
	}
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-42")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got != "upstream-id-42" {
		t.Errorf("expected incoming request ID to be preserved, got %q", got)
	}
	if rr.Header().Get("X-Request-ID") != "upstream-id-42" {
		t.Errorf("expected response header to echo the incoming ID")
	}
}

func TestRequestID_ReplacesUnsafeIncoming(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"embedded newline", "abc\ndef"},
		{"embedded space", "abc def"},
		{"control character", "abc\x01def"},
		{"non-ascii", "идентификатор"},
		{"too long", strings.Repeat("a", 129)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/tasks/urgent", nil)
			req.Header.Set("X-Request-ID", tt.id)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got == tt.id {
				t.Fatalf("unsafe incoming ID %q was propagated", tt.id)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected a replacement UUID, got %q", got)
			}
		})
	}
}
