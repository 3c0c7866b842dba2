// Package queue provides background job processing for grinfood.
//
// Usage:
//
//	// Define a job
//	type ResetPasswordEmail struct { Email, Link string }
//	func (j *ResetPasswordEmail) Handle(ctx context.Context) error { ... }
//
//	// Boot
//	q := queue.New(queue.NewMemoryDriver())
//	q.Register(func() queue.Job { return &ResetPasswordEmail{} })
//	q.StartWorkers(ctx, 2)
//
//	// Dispatch
//	q.Dispatch(ctx, &ResetPasswordEmail{Email: "a@x.com", Link: link})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

// Job is the interface every queued job must satisfy. Jobs are serialised
// as JSON, so their exported fields are their payload.
type Job interface {
	// Handle executes the job. Return a non-nil error to signal failure.
	Handle(ctx context.Context) error
}

// Dispatcher is the narrow interface services depend on.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with a nil
	// error means the driver timed out and the caller should poll again.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers with native delayed delivery.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// ------------------- Manager -------------------

// Manager owns the driver, the job registry and the worker loop.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job // type name → constructor
	maxRetry int
	backoff  func(attempt int) time.Duration
	failed   *failedStore
	wg       sync.WaitGroup
}

// New returns a Manager on driver with three attempts per job and linear
// one-second backoff.
func New(driver Driver) *Manager {
	return &Manager{
		driver:   driver,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		failed:   newFailedStore(),
	}
}

// SetMaxRetry sets how many times a failing job is attempted.
func (m *Manager) SetMaxRetry(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.maxRetry = n
}

// SetBackoff replaces the delay between attempts.
func (m *Manager) SetBackoff(fn func(attempt int) time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backoff = fn
}

// UseStore persists exhausted jobs to the failed_jobs collection.
func (m *Manager) UseStore(store docstore.Store) {
	m.failed.use(store.Collection(FailedJobsCollection))
}

// Register makes a job type available for deserialisation. Call it once at
// boot for every job type.
func (m *Manager) Register(factory func() Job) {
	name := typeName(factory())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

func typeName(job Job) string { return fmt.Sprintf("%T", job) }

// ------------------- Dispatch -------------------

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(job Job) ([]byte, error) {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Dispatch pushes job onto the queue immediately.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	return m.currentDriver().Push(ctx, env)
}

// DispatchAfter pushes job after delay. Drivers without native delayed
// delivery get a timer goroutine, which does not survive a restart.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	if dd, ok := m.currentDriver().(DelayedDriver); ok {
		return dd.PushDelayed(ctx, env, delay)
	}
	time.AfterFunc(delay, func() {
		if err := m.currentDriver().Push(context.Background(), env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

func (m *Manager) currentDriver() Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driver
}

// ------------------- Worker -------------------

// StartWorkers launches n workers that run until ctx is cancelled.
func (m *Manager) StartWorkers(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker has returned.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := m.currentDriver().Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env.Type, env.Payload)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, name string, payload []byte) {
	m.mu.RLock()
	maxRetry, backoff := m.maxRetry, m.backoff
	m.mu.RUnlock()

	start := time.Now()
	var lastErr error
retry:
	for attempt := 1; attempt <= maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(name, "success", start)
			logger.Debug("queue: job processed", "type", name)
			return
		}
		logger.Warn("queue: job failed", "type", name, "attempt", attempt, "error", lastErr)
		if attempt == maxRetry {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(backoff(attempt)):
		}
	}

	metrics.RecordQueueJob(name, "failed", start)
	m.failed.record(context.WithoutCancel(ctx), FailedJob{
		JobType:  name,
		Payload:  string(payload),
		Error:    lastErr.Error(),
		Attempts: maxRetry,
		FailedAt: time.Now().UTC(),
	})
	logger.Error("queue: job exhausted retries", "type", name, "error", lastErr)
}

// FailedJobs lists jobs that exhausted their retries, newest first.
func (m *Manager) FailedJobs(ctx context.Context) ([]FailedJob, error) {
	return m.failed.list(ctx)
}
