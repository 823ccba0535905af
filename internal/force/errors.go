package force

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWorkers is returned when a pool is requested with fewer than one worker.
	ErrNoWorkers = errors.New("force: at least one worker is required")

	// ErrEngineShutdown is returned by compute calls made after Shutdown.
	ErrEngineShutdown = errors.New("force: engine has been shut down")

	// ErrPoolClosed is returned when work is submitted to a closed pool.
	ErrPoolClosed = errors.New("force: worker pool is closed")

	// ErrInvalidDimensions is returned for dimensionality other than 2 or 3.
	ErrInvalidDimensions = errors.New("force: dimensions must be 2 or 3")
)

// WorkerError records the failure of one worker during a parallel pass.
// Its partial contribution is discarded.
type WorkerError struct {
	Worker int
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("force worker %d: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
