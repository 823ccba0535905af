package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestMetrics_RouteLabel(t *testing.T) {
	var label string
	r := mux.NewRouter()
	r.Use(Metrics)
	r.HandleFunc("/api/forces/{mode}", func(w http.ResponseWriter, req *http.Request) {
		label = routeLabel(req)
		w.WriteHeader(http.StatusAccepted)
	}).Methods("POST")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/forces/exact", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	if label != "/api/forces/{mode}" {
		t.Errorf("label = %q", label)
	}
}

func TestMetrics_UnmatchedLabel(t *testing.T) {
	req := httptest.NewRequest("GET", "/nope/12345", nil)
	if got := routeLabel(req); got != "unmatched" {
		t.Errorf("label = %q, want unmatched", got)
	}
}

func TestStatusRecorder(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d", rr.Code)
	}
}
