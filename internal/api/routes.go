package api

import (
	"github.com/gorilla/mux"
	"github.com/onnwee/repulse/internal/api/handlers"
	"github.com/onnwee/repulse/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the handlers the router dispatches to.
type Deps struct {
	Forces *handlers.ForceHandler
	Stream *handlers.ForceStream
	// Ready reports whether the engine still accepts passes.
	Ready func() bool
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", handlers.Health).Methods("GET")
	if d.Ready != nil {
		r.HandleFunc("/ready", handlers.Ready(d.Ready)).Methods("GET")
	}
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Forces
	api := r.PathPrefix("/api/forces").Subrouter()
	api.HandleFunc("/exact", d.Forces.Exact).Methods("POST")
	api.HandleFunc("/approx", d.Forces.Approx).Methods("POST")

	// Streaming
	if d.Stream != nil {
		r.HandleFunc("/ws/forces", d.Stream.HandleWebSocket).Methods("GET")
	}

	return r
}
