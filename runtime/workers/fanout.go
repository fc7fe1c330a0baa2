package workers

import (
	"context"
	"log/slog"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts domain events to the live connections of the
// event's conversation and to the permanent sinks (search index,
// event bridge, telemetry).
//
// Delivery to connections is at-least-once per device; delivery to
// permanent sinks is best-effort with a per-sink timeout so one stuck
// consumer cannot block the pipeline.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinks       []contract.EventSink
	events      chan event.DomainEvent
	telemetry   chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, sinks []contract.EventSink, registry contract.IRegistry,
	events, telemetry chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		sinks:       sinks,
		events:      events,
		telemetry:   telemetry,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt := <-w.events:
			w.Fanout(ctx, evt)
			select {
			case w.telemetry <- evt:
			default:
				w.log.Debug("Telemetry event lost")
			}
		}
	}
}

// Fanout delivers one event to the permanent sinks and to every live
// connection in the conversation's audience, minus the originator
// for receipt, typing and presence events.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, evt)
	}

	excluded, hasExcluded := originOf(evt)
	for _, recipient := range w.registry.SinksFor(evt.Conversation()) {
		if hasExcluded && recipient.User == excluded {
			continue
		}
		w.consume(ctx, recipient.Sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Warn("Sink rejected event", "error", err)
	}
}

// originOf names the identity that triggered the event, which must not
// receive its own receipt, typing or presence echo. A new message goes
// to everyone, the sender's devices included.
func originOf(evt event.DomainEvent) (domain.UserID, bool) {
	switch e := evt.(type) {
	case event.MessagesRead:
		return e.Reader, true
	case event.PresenceChanged:
		return e.UserID, true
	case event.TypingStarted:
		return e.UserID, true
	case event.TypingStopped:
		return e.UserID, true
	default:
		return "", false
	}
}
