// Package workerpool provides a bounded goroutine pool with backpressure.
//
// The event bus runs its async listeners here, so a burst of order events
// cannot spawn an unbounded number of goroutines. When all workers are busy
// and the buffer is full, Submit returns ErrPoolFull immediately.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    // drop or run inline
//	}
package workerpool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/shashiranjanraj/grinfood/pkg/logger"
)

var (
	// ErrPoolFull is returned by Submit when the task buffer is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")
	// ErrPoolClosed is returned by Submit after Shutdown has been called.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	closeCh chan struct{}
}

// New creates a Pool with size workers and a buffer of 2×size tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is queued, ctx is done or the pool is
// shutting down.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closeCh:
		return ErrPoolClosed
	}
}

// Shutdown stops accepting tasks, waits for queued and in-flight tasks to
// finish and releases the workers. It is safe to call multiple times.
func (p *Pool) Shutdown() {
	first := false
	p.once.Do(func() {
		first = true
		close(p.closeCh)
	})
	if !first {
		p.wg.Wait()
		return
	}

	// Blocked SubmitWait callers hold the read lock until they observe
	// closeCh, so no sender remains once the write lock is acquired.
	p.mu.Lock()
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

// safeRun executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
