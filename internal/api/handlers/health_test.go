package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var out map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", out["status"])
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		ready  bool
		code   int
		status string
	}{
		{true, http.StatusOK, "ready"},
		{false, http.StatusServiceUnavailable, "shutting_down"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		Ready(func() bool { return tt.ready })(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rr.Code != tt.code {
			t.Errorf("ready=%v: code = %d, want %d", tt.ready, rr.Code, tt.code)
		}
		var out map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out["status"] != tt.status {
			t.Errorf("ready=%v: status = %q, want %q", tt.ready, out["status"], tt.status)
		}
	}
}
