package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
)

// ─── Job types ────────────────────────────────────────────────────────────────

var echoed atomic.Int32

type echoJob struct {
	Val string
}

func (j *echoJob) Handle(context.Context) error {
	echoed.Add(1)
	return nil
}

var failAttempts atomic.Int32

type failJob struct{}

func (j *failJob) Handle(context.Context) error {
	failAttempts.Add(1)
	return errors.New("always fails")
}

func newManager(t *testing.T) *queue.Manager {
	t.Helper()
	m := queue.New(queue.NewMemoryDriver())
	m.SetBackoff(func(int) time.Duration { return time.Millisecond })
	m.Register(func() queue.Job { return &echoJob{} })
	m.Register(func() queue.Job { return &failJob{} })

	ctx, cancel := context.WithCancel(context.Background())
	m.StartWorkers(ctx, 2)
	t.Cleanup(func() {
		cancel()
		m.Wait()
	})
	return m
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestDispatchAndProcess(t *testing.T) {
	m := newManager(t)
	before := echoed.Load()

	require.NoError(t, m.Dispatch(context.Background(), &echoJob{Val: "hello"}))
	assert.Eventually(t, func() bool { return echoed.Load() == before+1 }, time.Second, 5*time.Millisecond)
}

func TestFailedJobIsPersisted(t *testing.T) {
	m := newManager(t)
	store := docstore.NewMemory()
	m.UseStore(store)
	m.SetMaxRetry(2)
	before := failAttempts.Load()

	require.NoError(t, m.Dispatch(context.Background(), &failJob{}))

	assert.Eventually(t, func() bool {
		failed, err := m.FailedJobs(context.Background())
		return err == nil && len(failed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	failed, err := m.FailedJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "*queue_test.failJob", failed[0].JobType)
	assert.Equal(t, 2, failed[0].Attempts)
	assert.Equal(t, "always fails", failed[0].Error)
	assert.Equal(t, before+2, failAttempts.Load())
}

func TestDispatchAfter(t *testing.T) {
	m := newManager(t)
	before := echoed.Load()

	require.NoError(t, m.DispatchAfter(context.Background(), &echoJob{Val: "later"}, 20*time.Millisecond))
	assert.Eventually(t, func() bool { return echoed.Load() == before+1 }, time.Second, 5*time.Millisecond)
}

func TestDispatchConcurrent(t *testing.T) {
	m := newManager(t)
	before := echoed.Load()

	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Dispatch(context.Background(), &echoJob{Val: "c"}))
		}()
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return echoed.Load() == before+20 }, time.Second, 5*time.Millisecond)
}
