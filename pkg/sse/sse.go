// Package sse streams Server-Sent Events to customers following their own
// orders. A Broker fans events out to the streams subscribed under a key
// (the owner's subject id):
//
//	broker := sse.NewBroker()
//	bus.Listen(event.OrderStatusChanged, func(ctx context.Context, e event.Event) {
//	    broker.Publish(ownerOf(e), e.Name, e.Payload)
//	})
//
//	router.Get("/orders/mine/events", "orders.events", ctx.Wrap(func(c *ctx.Context) {
//	    broker.Serve(c.W, c.R, c.Subject().ID)
//	}))
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Heartbeat is how often an idle stream receives a keepalive comment.
var Heartbeat = 25 * time.Second

// subscriberBuffer bounds how far a slow client may fall behind before
// events to it are dropped.
const subscriberBuffer = 16

// Stream represents an active SSE connection to one client.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher *http.ResponseController
	closed  bool
}

// New creates an SSE stream and sets the required headers. Middleware
// wrappers are looked through with Unwrap. Returns nil if the writer cannot
// flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil
	}
	return &Stream{w: w, r: r, flusher: rc}
}

// Send writes a named event with a JSON-encoded payload.
func (s *Stream) Send(event string, data any) error {
	if s.IsClosed() {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	return s.flusher.Flush()
}

// Comment writes an SSE comment, used as the keepalive heartbeat.
func (s *Stream) Comment(msg string) {
	if s.IsClosed() {
		return
	}
	fmt.Fprintf(s.w, ": %s\n\n", msg)
	s.flusher.Flush() //nolint:errcheck
}

// IsClosed reports whether the client has disconnected.
func (s *Stream) IsClosed() bool {
	if s == nil {
		return true
	}
	select {
	case <-s.r.Context().Done():
		s.closed = true
	default:
	}
	return s.closed
}

// Message is one event queued for a subscriber.
type Message struct {
	Event string
	Data  any
}

// Broker routes messages to the streams subscribed under a key.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Message]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Message]struct{}{}, done: make(chan struct{})}
}

// Close ends every stream being served. Call it when the HTTP server shuts
// down, since open streams never become idle on their own.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Subscribe registers a channel under key. The returned func removes it.
func (b *Broker) Subscribe(key string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = map[chan Message]struct{}{}
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], ch)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
		})
	}
}

// Publish queues a message for every subscriber of key and returns how
// many received it. Subscribers with a full buffer miss it.
func (b *Broker) Publish(key, event string, data any) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for ch := range b.subs[key] {
		select {
		case ch <- Message{Event: event, Data: data}:
			n++
		default:
		}
	}
	return n
}

// Subscribers returns the number of open subscriptions under key.
func (b *Broker) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}

// Serve streams the messages published under key until the client goes
// away.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, key string) {
	stream := New(w, r)
	if stream == nil {
		return
	}
	msgs, unsubscribe := b.Subscribe(key)
	defer unsubscribe()

	tick := time.NewTicker(Heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.done:
			return
		case m := <-msgs:
			if err := stream.Send(m.Event, m.Data); err != nil {
				return
			}
		case <-tick.C:
			stream.Comment("keepalive")
		}
	}
}
