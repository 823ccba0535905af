// Package force computes Fruchterman-Reingold repulsive forces for a set of
// node positions, either exactly over all pairs or approximately over a
// uniform spatial grid.
package force

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/metrics"
	"github.com/onnwee/repulse/internal/tracing"
	"github.com/onnwee/repulse/internal/utils"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMultithreadThreshold is the node count from which exact passes are
// spread over the pool.
const DefaultMultithreadThreshold = 256

// PositionLookup returns the current position of a node.
type PositionLookup interface {
	Position(id string) Vec
}

// PositionMap is a PositionLookup backed by a map. Unknown ids sit at the origin.
type PositionMap map[string]Vec

func (m PositionMap) Position(id string) Vec {
	return m[id]
}

// Options configures an Engine.
type Options struct {
	Dimensions           int    // 2 or 3; 0 means 2
	MultithreadThreshold int    // 0 means DefaultMultithreadThreshold
	Workers              int    // pool size used by New; 0 means runtime.NumCPU()
	Seed                 uint64 // random source for perturbation; 0 means time based
	Logger               *slog.Logger
}

// Engine is the entry point for force passes. It borrows a worker pool for
// exact passes and owns it from construction until Shutdown.
type Engine struct {
	pool      *Pool
	dims      int
	threshold int
	log       *slog.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand

	closed atomic.Bool

	// beforeChunk, when set, runs at the start of every parallel worker task.
	beforeChunk func(worker int) error
}

// New builds a pool of opts.Workers workers and an engine that owns it.
func New(opts Options) (*Engine, error) {
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	pool, err := NewPool(workers)
	if err != nil {
		return nil, err
	}
	e, err := NewEngine(pool, opts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return e, nil
}

// NewEngine creates an engine on top of an existing pool. Shutdown closes it.
func NewEngine(pool *Pool, opts Options) (*Engine, error) {
	if pool == nil {
		return nil, ErrNoWorkers
	}
	dims := opts.Dimensions
	if dims == 0 {
		dims = 2
	}
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimensions, dims)
	}
	threshold := opts.MultithreadThreshold
	if threshold <= 0 {
		threshold = DefaultMultithreadThreshold
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log := opts.Logger
	if log == nil {
		log = logger.WithComponent("force")
	}
	return &Engine{
		pool:      pool,
		dims:      dims,
		threshold: threshold,
		log:       log,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Dimensions returns 2 or 3.
func (e *Engine) Dimensions() int { return e.dims }

// Workers returns the size of the engine's pool.
func (e *Engine) Workers() int { return e.pool.Size() }

// Closed reports whether Shutdown has been called.
func (e *Engine) Closed() bool { return e.closed.Load() }

// Shutdown releases the worker pool. Later compute calls fail with
// ErrEngineShutdown.
func (e *Engine) Shutdown() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.pool.Close()
	e.log.Info("force engine shut down", "workers", e.pool.Size())
}

// newKernel returns a kernel with its own random stream drawn from the
// engine's source.
func (e *Engine) newKernel() *kernel {
	e.mu.Lock()
	s1, s2 := e.rng.Uint64(), e.rng.Uint64()
	e.mu.Unlock()
	return &kernel{dims: e.dims, rng: rand.New(rand.NewPCG(s1, s2))}
}

func (e *Engine) recordKernel(k *kernel) {
	if k.perturbed > 0 {
		metrics.ForcePerturbations.Add(float64(k.perturbed))
	}
	if k.skipped > 0 {
		metrics.ForceNegligiblePairs.Add(float64(k.skipped))
	}
}

// Parallel reports whether an exact pass over n nodes uses the pool.
func (e *Engine) Parallel(n int) bool {
	return n >= e.threshold && e.pool.Size() > 1
}

// ExactForces computes all-pairs repulsion for positions indexed like pos.
func (e *Engine) ExactForces(ctx context.Context, pos []Vec) ([]Vec, error) {
	if e.closed.Load() {
		return nil, ErrEngineShutdown
	}
	pos = e.flatten(pos)
	strategy := "exact"
	if e.Parallel(len(pos)) {
		strategy = "exact_parallel"
	}

	ctx, span := tracing.StartSpan(ctx, "force.ComputeExact")
	defer span.End()
	span.SetAttributes(attribute.Int("nodes", len(pos)), attribute.String("strategy", strategy))
	start := time.Now()

	var forces []Vec
	if strategy == "exact" {
		k := e.newKernel()
		forces = exactSequential(pos, k)
		e.recordKernel(k)
	} else {
		var err error
		forces, err = e.exactParallel(ctx, pos)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	e.observe(ctx, strategy, len(pos), start)
	return forces, nil
}

// ApproxForces computes grid-based repulsion for positions indexed like pos.
// Negative quotients fall back to DefaultGridQuotient.
func (e *Engine) ApproxForces(ctx context.Context, pos []Vec, box DrawingBox, quotient int) ([]Vec, error) {
	if e.closed.Load() {
		return nil, ErrEngineShutdown
	}
	pos = e.flatten(pos)
	quotient = NormalizeGridQuotient(quotient)

	ctx, span := tracing.StartSpan(ctx, "force.ComputeApprox")
	defer span.End()
	span.SetAttributes(
		attribute.Int("nodes", len(pos)),
		attribute.Int("grid_quotient", quotient),
		attribute.Int("grid_index", GridIndex(len(pos), quotient)),
	)
	start := time.Now()

	forces := e.approxGrid(pos, box, quotient)
	e.observe(ctx, "approx", len(pos), start)
	return forces, nil
}

// ComputeExact returns the exact repulsive force on every node in ids.
// Duplicate ids are counted once. ctx carries tracing and logging scope
// only; a pass always runs to completion.
func (e *Engine) ComputeExact(ctx context.Context, ids []string, pos PositionLookup) (map[string]Vec, error) {
	order, snapshot := e.snapshot(ids, pos)
	forces, err := e.ExactForces(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return collect(order, forces), nil
}

// ComputeApprox returns the grid-approximated repulsive force on every node
// in ids. Positions are expected to lie inside box.
func (e *Engine) ComputeApprox(ctx context.Context, ids []string, pos PositionLookup, box DrawingBox, gridQuotient int) (map[string]Vec, error) {
	order, snapshot := e.snapshot(ids, pos)
	forces, err := e.ApproxForces(ctx, snapshot, box, gridQuotient)
	if err != nil {
		return nil, err
	}
	return collect(order, forces), nil
}

func (e *Engine) snapshot(ids []string, pos PositionLookup) ([]string, []Vec) {
	order := utils.UniqueStrings(ids)
	out := make([]Vec, len(order))
	for i, id := range order {
		out[i] = pos.Position(id)
	}
	return order, out
}

func (e *Engine) flatten(pos []Vec) []Vec {
	if e.dims == 3 {
		return pos
	}
	out := make([]Vec, len(pos))
	for i, p := range pos {
		out[i] = p.Flatten(2)
	}
	return out
}

func (e *Engine) observe(ctx context.Context, strategy string, n int, start time.Time) {
	elapsed := time.Since(start)
	metrics.ForcePassesTotal.WithLabelValues(strategy).Inc()
	metrics.ForcePassDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	metrics.ForcePassNodes.Observe(float64(n))
	e.log.DebugContext(ctx, "force pass complete",
		"strategy", strategy,
		"nodes", n,
		"duration", elapsed,
	)
}

func collect(order []string, forces []Vec) map[string]Vec {
	out := make(map[string]Vec, len(order))
	for i, id := range order {
		out[id] = forces[i]
	}
	return out
}
