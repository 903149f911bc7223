package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yusufwdn/reimverse/internal/core/events"
)

// Queue accepts messages for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, msg *Message) error
}

// Dispatcher bridges the in-process event bus to the notification queue.
type Dispatcher struct {
	notifier *Notifier
	queue    Queue
	logger   *slog.Logger
}

func NewDispatcher(notifier *Notifier, queue Queue, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, queue: queue, logger: logger}
}

func (d *Dispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeReimbursementSubmitted, d.HandleSubmitted)
	bus.Subscribe(events.EventTypeReimbursementDecided, d.HandleDecided)
}

func (d *Dispatcher) HandleSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReimbursementSubmittedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	messages, err := d.notifier.ForSubmitted(ctx, e)
	if err != nil {
		return err
	}
	return d.enqueueAll(ctx, event, messages)
}

func (d *Dispatcher) HandleDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReimbursementDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	messages, err := d.notifier.ForDecided(ctx, e)
	if err != nil {
		return err
	}
	return d.enqueueAll(ctx, event, messages)
}

// enqueueAll keeps going past individual failures so one bad recipient does
// not starve the others, and reports the first error.
func (d *Dispatcher) enqueueAll(ctx context.Context, event events.Event, messages []*Message) error {
	var firstErr error
	for _, msg := range messages {
		if err := d.queue.Enqueue(ctx, msg); err != nil {
			d.logger.Error("failed to enqueue notification",
				"event_id", event.EventID(),
				"notification_id", msg.ID,
				"recipient_id", msg.RecipientID,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	d.logger.Info("notifications dispatched",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"recipients", len(messages))
	return firstErr
}
