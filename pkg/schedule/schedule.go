// Package schedule provides a cron-style task scheduler.
//
// Usage:
//
//	s := schedule.New()
//	s.Interval(config.PurgeSweepInterval()).
//	    Name("purge:sweep").
//	    WithoutOverlapping().
//	    Run(sweeper.Sweep)
//	s.Cron("0 3 * * *").Name("nightly").Run(task)
//
//	// Start the scheduler in the background (call once at boot):
//	s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/logger"
)

// Task is the function signature for a scheduled task. A returned error is
// logged.
type Task func(ctx context.Context) error

// entry represents a single scheduled job.
type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string // "" unless using Cron()
	task      Task
	lastRun   time.Time
	running   bool // overlap guard
	noOverlap bool
	mu        sync.Mutex
}

// Scheduler owns a set of entries and dispatches them once per second.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

// New returns an empty Scheduler.
func New() *Scheduler { return &Scheduler{} }

// Builder is a fluent builder for a single entry before it is registered.
type Builder struct {
	s *Scheduler
	e *entry
}

// EveryMinute schedules the task to run every 60 seconds.
func (s *Scheduler) EveryMinute() *Builder { return s.Every(1).Minutes() }

// Every starts a fluent builder with n units.
func (s *Scheduler) Every(n int) *FreqBuilder { return &FreqBuilder{s: s, n: n} }

// Interval schedules the task every d.
func (s *Scheduler) Interval(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// Hourly schedules the task to run every hour.
func (s *Scheduler) Hourly() *Builder { return s.Every(1).Hours() }

// Daily schedules the task to run every 24 hours.
func (s *Scheduler) Daily() *Builder { return s.Every(24).Hours() }

// Cron schedules using a 5-field cron expression (min hour dom mon dow).
func (s *Scheduler) Cron(expr string) *Builder {
	return &Builder{s: s, e: &entry{cronExpr: expr}}
}

// FreqBuilder picks the unit for Every.
type FreqBuilder struct {
	s *Scheduler
	n int
}

func (f *FreqBuilder) Seconds() *Builder { return f.s.Interval(time.Duration(f.n) * time.Second) }
func (f *FreqBuilder) Minutes() *Builder { return f.s.Interval(time.Duration(f.n) * time.Minute) }
func (f *FreqBuilder) Hours() *Builder   { return f.s.Interval(time.Duration(f.n) * time.Hour) }
func (f *FreqBuilder) Days() *Builder    { return f.s.Interval(time.Duration(f.n) * 24 * time.Hour) }

// WithoutOverlapping prevents a new run if the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Name gives the entry a human-readable identifier for logging.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers the task. Call Start to begin dispatching.
func (b *Builder) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// ------------------- Scheduler loop -------------------

// Start runs the scheduler loop in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
	logger.Info("schedule: scheduler started", "entries", len(s.List()))
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

// Wait blocks until all dispatched task runs have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// RunNow executes the named entry synchronously, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	var found *entry
	for _, e := range s.entries {
		if e.id == id {
			found = e
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("schedule: no task named %q", id)
	}
	return found.task(ctx)
}

func isDue(e *entry, now time.Time) bool {
	if e.cronExpr != "" {
		// At most one run per matching minute.
		if !e.lastRun.IsZero() && e.lastRun.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		return matchCron(e.cronExpr, now)
	}
	if e.lastRun.IsZero() {
		return true // first run
	}
	return now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if !isDue(e, now) {
		e.mu.Unlock()
		return
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		logger.Debug("schedule: running task", "id", e.id)
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
		}
	}()
}

// ------------------- Minimal cron parser -------------------
// Supports 5-field cron: minute hour dom month dow
// Each field: * | number | */step | a-b | comma-separated list of those

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	for _, part := range strings.Split(field, ",") {
		if matchPart(part, val) {
			return true
		}
	}
	return false
}

func matchPart(part string, val int) bool {
	if part == "*" {
		return true
	}
	if step, ok := strings.CutPrefix(part, "*/"); ok {
		n, err := strconv.Atoi(step)
		return err == nil && n > 0 && val%n == 0
	}
	if lo, hi, ok := strings.Cut(part, "-"); ok {
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		return err1 == nil && err2 == nil && val >= l && val <= h
	}
	n, err := strconv.Atoi(part)
	return err == nil && n == val
}

// List returns all registered entries (for CLI display).
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}
