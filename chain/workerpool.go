package chain

import "context"

// job is one unit of parallel, read-only verification work: a PQ
// signature check, a ZK proof check, a VDF check, or an erasure decode.
type job func(ctx context.Context) error

// WorkerPool is a bounded pool of goroutines with explicit submission and a
// join barrier: callers submit a batch of jobs and block until every job
// in that batch has run, mirroring the single-writer model's rule that
// verification is parallel and read-only but commitment is not — no
// ambient scheduler assumption, no suspension point outside this barrier.
type WorkerPool struct {
	size int
}

// NewWorkerPool builds a pool that runs at most size jobs concurrently.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{size: size}
}

// RunBatch dispatches jobs across the pool and returns the first error
// encountered, if any, only after every job has finished. ctx is handed to
// each job; RunBatch itself does not watch it, and never returns early
// while goroutines are still running.
func (p *WorkerPool) RunBatch(ctx context.Context, jobs []job) error {
	if len(jobs) == 0 {
		return nil
	}
	sem := make(chan struct{}, p.size)
	errs := make(chan error, len(jobs))

	for _, j := range jobs {
		j := j
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			errs <- j(ctx)
		}()
	}
	// Join barrier: drain exactly len(jobs) results before returning.
	var first error
	for i := 0; i < len(jobs); i++ {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}
