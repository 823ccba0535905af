package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/repulse/internal/logger"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if len(seen) != 32 {
		t.Fatalf("expected 32 hex chars, got %q", seen)
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Error("response header should match context value")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.RequestIDKey).(string)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != "client-id-1" {
		t.Errorf("context id = %q, want client-id-1", seen)
	}
}

func TestRequestID_OversizedReplaced(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rr := httptest.NewRecorder()
	RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); len(got) != 32 {
		t.Errorf("oversized id should be replaced, got %d chars", len(got))
	}
}
