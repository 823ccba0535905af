package force

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/onnwee/repulse/internal/errorreporting"
	"github.com/onnwee/repulse/internal/metrics"
	"github.com/onnwee/repulse/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// exactSequential visits every unordered pair once on the calling goroutine.
func exactSequential(pos []Vec, k *kernel) []Vec {
	forces := make([]Vec, len(pos))
	for u := 0; u < len(pos); u++ {
		for v := u + 1; v < len(pos); v++ {
			k.apply(u, v, pos, forces)
		}
	}
	return forces
}

// chunkBounds splits n nodes into contiguous runs of ceil(n/workers).
// Trailing workers may receive empty runs.
func chunkBounds(n, workers int) [][2]int {
	per := int(math.Ceil(float64(n) / float64(workers)))
	bounds := make([][2]int, 0, workers)
	for w := 0; w < workers; w++ {
		first := w * per
		if first >= n {
			break
		}
		last := first + per
		if last > n {
			last = n
		}
		bounds = append(bounds, [2]int{first, last})
	}
	return bounds
}

// exactParallel splits the node list into one chunk per worker. A worker
// pairs each node of its chunk with every later node of the full list and
// accumulates both sides into its own array, so no locking is needed. The
// arrays cost O(workers*n) memory and are summed once every worker is done.
// A failed worker is logged and its contribution dropped; the pass then
// returns an approximation, which the next layout iteration corrects.
func (e *Engine) exactParallel(ctx context.Context, pos []Vec) ([]Vec, error) {
	n := len(pos)
	bounds := chunkBounds(n, e.pool.Size())
	partials := make([][]Vec, len(bounds))
	kernels := make([]*kernel, len(bounds))
	tasks := make([]func() error, len(bounds))
	for w, b := range bounds {
		kernels[w] = e.newKernel()
		tasks[w] = func() error {
			_, span := tracing.StartSpan(ctx, "force.worker")
			defer span.End()
			span.SetAttributes(attribute.Int("worker", w), attribute.Int("first", b[0]), attribute.Int("last", b[1]))

			if e.beforeChunk != nil {
				if err := e.beforeChunk(w); err != nil {
					return err
				}
			}
			k := kernels[w]
			acc := make([]Vec, n)
			for u := b[0]; u < b[1]; u++ {
				for v := u + 1; v < n; v++ {
					k.apply(u, v, pos, acc)
				}
			}
			partials[w] = acc
			return nil
		}
	}

	errs, err := e.pool.Run(tasks)
	if errors.Is(err, ErrPoolClosed) {
		return nil, fmt.Errorf("dispatch exact pass: %w: %w", ErrEngineShutdown, err)
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch exact pass: %w", err)
	}

	forces := make([]Vec, n)
	for w, acc := range partials {
		if errs[w] != nil {
			e.workerFailed(ctx, &WorkerError{Worker: w, Err: errs[w]}, n)
			continue
		}
		for v := range forces {
			forces[v] = forces[v].Add(acc[v])
		}
		e.recordKernel(kernels[w])
	}
	return forces, nil
}

func (e *Engine) workerFailed(ctx context.Context, err *WorkerError, nodes int) {
	e.log.WarnContext(ctx, "force worker failed, contribution dropped for this pass",
		"worker", err.Worker,
		"nodes", nodes,
		"error", err.Err,
	)
	metrics.ForceWorkerFailures.Inc()
	errorreporting.CaptureErrorWithContext(err,
		map[string]string{"component": "force"},
		map[string]interface{}{"worker": err.Worker, "nodes": nodes},
	)
}
