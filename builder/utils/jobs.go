package utils

import (
	"context"
	"runtime"
	"sync"
)

// poolCap bounds the goroutine count no matter what a caller asks for.
// Builds are disk-bound well before 32 workers.
const poolCap = 32

// JobPool fans items out to a fixed set of goroutines running fn. Workers
// start immediately; Send queues an item and Wait closes the queue and
// blocks until every queued item has been handled. When ctx is cancelled
// the workers drain nothing further and Send becomes a no-op.
type JobPool[T any] struct {
	ctx  context.Context
	jobs chan T
	wg   sync.WaitGroup
}

func NewJobPool[T any](ctx context.Context, workers int, fn func(T)) *JobPool[T] {
	switch {
	case workers <= 0:
		workers = runtime.GOMAXPROCS(0)
	case workers > poolCap:
		workers = poolCap
	}

	p := &JobPool[T]{
		ctx:  ctx,
		jobs: make(chan T, workers*4),
	}
	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, open := <-p.jobs:
					if !open {
						return
					}
					fn(job)
				}
			}
		}()
	}
	return p
}

// Send queues one item. It blocks while the queue is full, which keeps a
// fast producer from outrunning slow handlers.
func (p *JobPool[T]) Send(job T) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Wait closes the queue and blocks until the workers exit. No Send may
// follow it.
func (p *JobPool[T]) Wait() {
	close(p.jobs)
	p.wg.Wait()
}
