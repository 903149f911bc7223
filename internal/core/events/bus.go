package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/yusufwdn/reimverse/internal"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the envelope shared by every reimbursement event.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans reimbursement events out to in-process subscribers. A failing
// or panicking subscriber never affects the caller of Publish.
type EventBus struct {
	mu       sync.RWMutex
	routes   map[string][]Handler
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		routes: make(map[string][]Handler),
		logger: logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.routes[eventType] = append(eb.routes[eventType], handler)
	count := len(eb.routes[eventType])
	eb.mu.Unlock()

	eb.logger.Info("event subscriber added", "event_type", eventType, "subscribers", count)
}

func (eb *EventBus) subscribers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	out := make([]Handler, len(eb.routes[eventType]))
	copy(out, eb.routes[eventType])
	return out
}

// Publish runs subscribers in the background on a context detached from the
// caller's cancellation. Use Wait to drain them.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := eb.subscribers(event.EventType())
	if len(handlers) == 0 {
		eb.logger.Debug("event has no subscribers", "event_type", event.EventType())
		return nil
	}

	eb.logEvent(ctx, "event published", event, len(handlers))
	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		eb.inflight.Add(1)
		go func(h Handler) {
			defer eb.inflight.Done()
			_ = eb.deliver(detached, h, event)
		}(h)
	}
	return nil
}

// PublishSync runs subscribers in registration order and stops at the first
// failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers := eb.subscribers(event.EventType())
	if len(handlers) == 0 {
		eb.logger.Debug("event has no subscribers", "event_type", event.EventType())
		return nil
	}

	eb.logEvent(ctx, "event published synchronously", event, len(handlers))
	for _, h := range handlers {
		if err := eb.deliver(ctx, h, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Wait blocks until every subscriber started by Publish has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

func (eb *EventBus) deliver(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("subscriber panicked: %v", rec)
			eb.logger.Error("event subscriber panicked",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"panic", rec,
				"stack", string(debug.Stack()))
		}
	}()

	if err = h(ctx, event); err != nil {
		eb.logger.Error("event subscriber failed",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"trace_id", internal.TraceIDFromContext(ctx),
			"error", err)
	}
	return err
}

func (eb *EventBus) logEvent(ctx context.Context, msg string, event Event, subscribers int) {
	eb.logger.Info(msg,
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"trace_id", internal.TraceIDFromContext(ctx),
		"subscribers", subscribers)
}
