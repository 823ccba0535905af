package force

import (
	"fmt"
	"sync"
)

// Pool is a fixed set of worker goroutines reused across force passes.
// Its size never changes after construction. Close must be called when the
// pool is no longer needed.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // protects tasks from being closed during Run
	closed  bool         // protected by mu
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, workers)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.workers
}

// Run dispatches every task to the pool and blocks until all of them have
// returned. The i-th element of the returned slice holds the error (or
// recovered panic) of the i-th task. Run fails with ErrPoolClosed if the
// pool has been closed.
func (p *Pool) Run(tasks []func() error) ([]error, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		p.tasks <- func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			errs[i] = task()
		}
	}
	wg.Wait()
	return errs, nil
}

// Close stops the workers after in-flight tasks finish. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
