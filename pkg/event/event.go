// Package event provides a small in-process event bus.
//
// Listeners registered with Listen are called synchronously by Fire and on
// a bounded worker pool by FireAsync.
//
//	bus := event.New(workerpool.New(4))
//	bus.Listen("order.created", func(ctx context.Context, e event.Event) {
//	    hub.Broadcast(e)
//	})
//	bus.FireAsync(ctx, "order.created", order)
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/workerpool"
)

// Event names published by the order lifecycle.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Event is what listeners receive.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Handler receives an event.
type Handler func(ctx context.Context, e Event)

// Publisher is the narrow interface services depend on.
type Publisher interface {
	FireAsync(ctx context.Context, name string, payload any)
}

// Bus dispatches events to registered listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// New returns a Bus whose async listeners run on pool. A nil pool makes
// FireAsync behave like Fire.
func New(pool *workerpool.Pool) *Bus {
	return &Bus{handlers: map[string][]Handler{}, pool: pool}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) listeners(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[name]))
	copy(hs, b.handlers[name])
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(ctx context.Context, name string, payload any) {
	e := Event{Name: name, Payload: payload}
	for _, h := range b.listeners(name) {
		h(ctx, e)
	}
}

// FireAsync hands every listener to the worker pool and returns
// immediately. Listeners get a context detached from the caller's
// cancellation. When the pool is saturated the event is dropped for that
// listener and a warning is logged.
func (b *Bus) FireAsync(ctx context.Context, name string, payload any) {
	if b.pool == nil {
		b.Fire(ctx, name, payload)
		return
	}
	e := Event{Name: name, Payload: payload}
	detached := context.WithoutCancel(ctx)
	for _, h := range b.listeners(name) {
		if err := b.pool.Submit(func() { h(detached, e) }); err != nil {
			logger.WithCtx(ctx).Warn("event: listener dropped", "event", name, "error", err)
		}
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
