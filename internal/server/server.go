// Package server assembles the force HTTP service: engine, cache,
// middleware chain and router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/onnwee/repulse/internal/api"
	"github.com/onnwee/repulse/internal/api/handlers"
	"github.com/onnwee/repulse/internal/cache"
	"github.com/onnwee/repulse/internal/config"
	"github.com/onnwee/repulse/internal/force"
	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/middleware"
)

// Server owns the HTTP listener and everything behind it.
type Server struct {
	cfg     *config.Config
	engine  *force.Engine
	cache   *cache.LRUCache
	limiter *middleware.RateLimiter
	stream  *handlers.ForceStream
	http    *http.Server
}

// New builds a server around engine. The engine is shut down by Shutdown.
func New(cfg *config.Config, engine *force.Engine) (*Server, error) {
	c, err := cache.NewLRU(cfg.CacheMaxSizeMB, cfg.CacheMaxEntries, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	forces := handlers.NewForceHandler(engine, c, handlers.Limits{
		MaxNodes:     cfg.MaxNodes,
		MaxGridCells: cfg.MaxGridCells,
	}, cfg.GridQuotient)
	stream := handlers.NewForceStream(forces)
	router := api.NewRouter(api.Deps{
		Forces: forces,
		Stream: stream,
		Ready:  func() bool { return !engine.Closed() },
	})

	s := &Server{
		cfg:    cfg,
		engine: engine,
		cache:  c,
		stream: stream,
	}

	var h http.Handler = middleware.Compress(router)
	if cfg.EnableRateLimit {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst, cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst)
		h = s.limiter.Limit(h)
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	h = middleware.CORS(corsCfg)(h)
	h = middleware.RecoverWithSentry(h)
	h = middleware.RequestID(h)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	logger.Info("force server listening",
		"addr", s.cfg.HTTPAddr,
		"dimensions", s.engine.Dimensions(),
		"workers", s.engine.Workers(),
		"rate_limit", s.cfg.EnableRateLimit,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP traffic, disconnects websocket clients and stops
// the engine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stream.Close()
	err := s.http.Shutdown(ctx)
	s.engine.Shutdown()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cache.Close()
	return err
}
