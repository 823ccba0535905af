package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/onnwee/repulse/internal/apierr"
	"github.com/onnwee/repulse/internal/cache"
	"github.com/onnwee/repulse/internal/force"
	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/metrics"
	"github.com/onnwee/repulse/internal/positions"
)

const (
	ModeExact  = "exact"
	ModeApprox = "approx"

	// maxBodyBytes bounds request bodies before JSON decoding.
	maxBodyBytes = 32 << 20

	// boxPadding is added around the nodes when a request carries no box.
	boxPadding = 1.0
)

// ForceComputer is the part of force.Engine the handlers need.
type ForceComputer interface {
	Dimensions() int
	ComputeExact(ctx context.Context, ids []string, pos force.PositionLookup) (map[string]force.Vec, error)
	ComputeApprox(ctx context.Context, ids []string, pos force.PositionLookup, box force.DrawingBox, gridQuotient int) (map[string]force.Vec, error)
}

// ForceResponse is the body returned for a force pass.
type ForceResponse struct {
	Strategy     string               `json:"strategy"`
	Nodes        int                  `json:"nodes"`
	GridQuotient int                  `json:"grid_quotient,omitempty"`
	Box          *force.DrawingBox    `json:"box,omitempty"`
	Forces       map[string]force.Vec `json:"forces"`
}

// Limits bounds the work one request may ask for. Zero fields mean no limit.
type Limits struct {
	MaxNodes     int
	MaxGridCells int
}

// ForceHandler serves repulsive force passes over HTTP.
type ForceHandler struct {
	engine          ForceComputer
	cache           cache.Cache
	limits          Limits
	defaultQuotient int
}

// NewForceHandler creates a handler. A nil cache disables response caching.
func NewForceHandler(engine ForceComputer, c cache.Cache, limits Limits, defaultQuotient int) *ForceHandler {
	if defaultQuotient <= 0 {
		defaultQuotient = force.DefaultGridQuotient
	}
	return &ForceHandler{
		engine:          engine,
		cache:           c,
		limits:          limits,
		defaultQuotient: defaultQuotient,
	}
}

// Exact computes all-pairs forces.
// POST /api/forces/exact
func (h *ForceHandler) Exact(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ModeExact)
}

// Approx computes grid-approximated forces.
// POST /api/forces/approx
func (h *ForceHandler) Approx(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ModeApprox)
}

func (h *ForceHandler) serve(w http.ResponseWriter, r *http.Request, mode string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("body", "Request body too large or unreadable"))
		return
	}

	key := cache.Key(mode, body)
	if h.cache != nil {
		if cached, found := h.cache.Get(key); found {
			metrics.APICacheHits.WithLabelValues(mode).Inc()
			writeJSON(w, "HIT", cached)
			return
		}
		metrics.APICacheMisses.WithLabelValues(mode).Inc()
	}

	var doc positions.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
		return
	}

	resp, apiErr := h.Compute(r.Context(), mode, doc)
	if apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to marshal force response", "error", err, "mode", mode)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("Failed to serialize response"))
		return
	}
	if h.cache != nil {
		h.cache.Set(key, data, 0)
	}
	writeJSON(w, "MISS", data)
}

// Compute validates a document and runs one force pass in the given mode.
func (h *ForceHandler) Compute(ctx context.Context, mode string, doc positions.Document) (*ForceResponse, *apierr.Error) {
	if mode != ModeExact && mode != ModeApprox {
		return nil, apierr.ValidationInvalidValue("mode", "mode must be exact or approx")
	}
	if doc.Nodes == nil {
		return nil, apierr.ValidationMissingField("nodes")
	}
	if h.limits.MaxNodes > 0 && len(doc.Nodes) > h.limits.MaxNodes {
		return nil, apierr.ForceTooManyNodes(len(doc.Nodes), h.limits.MaxNodes)
	}
	if doc.Box != nil && !validBox(*doc.Box) {
		return nil, apierr.ValidationInvalidValue("box", "box length must be positive and finite")
	}
	snap, err := positions.FromDocument(doc)
	if err != nil {
		return nil, apierr.ValidationInvalidValue("nodes", err.Error())
	}

	resp := &ForceResponse{Strategy: mode, Nodes: snap.Len()}
	var forces map[string]force.Vec
	switch mode {
	case ModeExact:
		forces, err = h.engine.ComputeExact(ctx, snap.IDs, snap)
	case ModeApprox:
		dims := h.engine.Dimensions()
		q := snap.GridQuotient
		if q == 0 {
			q = h.defaultQuotient
		}
		if cells := force.GridCells(snap.Len(), q, dims); h.limits.MaxGridCells > 0 && cells > h.limits.MaxGridCells {
			return nil, apierr.ValidationInvalidValue("grid_quotient",
				fmt.Sprintf("grid of %d cells exceeds the limit of %d, use a larger quotient", cells, h.limits.MaxGridCells))
		}
		box := snap.DrawingBox(boxPadding, dims)
		resp.Box = &box
		resp.GridQuotient = force.NormalizeGridQuotient(q)
		forces, err = h.engine.ComputeApprox(ctx, snap.IDs, snap, box, q)
	}
	if err != nil {
		if errors.Is(err, force.ErrEngineShutdown) {
			return nil, apierr.ForceUnavailable()
		}
		logger.ErrorContext(ctx, "Force pass failed", "error", err, "mode", mode, "nodes", snap.Len())
		return nil, apierr.ForceFailed("")
	}
	resp.Forces = forces
	return resp, nil
}

func validBox(b force.DrawingBox) bool {
	return b.Length > 0 && !math.IsInf(b.Length, 0) && b.Corner.IsFinite()
}

func writeJSON(w http.ResponseWriter, cacheStatus string, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	_, _ = w.Write(data)
}
