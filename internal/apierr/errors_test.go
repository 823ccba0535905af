package apierr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/repulse/internal/logger"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		code   ErrorCode
		status int
	}{
		{"too many nodes", ForceTooManyNodes(10, 5), ErrForceTooManyNodes, http.StatusBadRequest},
		{"unavailable", ForceUnavailable(), ErrForceUnavailable, http.StatusServiceUnavailable},
		{"failed", ForceFailed(""), ErrForceFailed, http.StatusInternalServerError},
		{"internal", SystemInternal(""), ErrSystemInternal, http.StatusInternalServerError},
		{"invalid json", ValidationInvalidJSON(), ErrValidationInvalidJSON, http.StatusBadRequest},
		{"missing field", ValidationMissingField("nodes"), ErrValidationMissingField, http.StatusBadRequest},
		{"invalid value", ValidationInvalidValue("box", ""), ErrValidationInvalidValue, http.StatusBadRequest},
		{"rate global", RateLimitGlobal(), ErrRateLimitGlobal, http.StatusTooManyRequests},
		{"rate ip", RateLimitIP(), ErrRateLimitIP, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Status() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.Status(), tt.status)
			}
			if tt.err.Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/forces/exact", nil)
	req = req.WithContext(context.WithValue(req.Context(), logger.RequestIDKey, "req-1"))
	rr := httptest.NewRecorder()

	WriteErrorWithContext(rr, req, ForceTooManyNodes(7, 3))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID != "req-1" {
		t.Errorf("request id = %q, want req-1", body.Error.RequestID)
	}
	if body.Error.Details["max_nodes"] != float64(3) {
		t.Errorf("details = %v", body.Error.Details)
	}
}
