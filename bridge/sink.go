package bridge

import (
	"context"
	"log/slog"

	"bluecollar-chat/domain/event"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Sink adapts the publisher to the fanout pipeline. Broker failures
// are logged, never propagated: live delivery to connections must not
// depend on the broker being up.
type Sink struct {
	publisher Publisher
	log       *slog.Logger
}

func NewSink(publisher Publisher, log *slog.Logger) Sink {
	return Sink{publisher: publisher, log: log}
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	key, env, ok := toEnvelope(e)
	if !ok {
		return nil
	}
	if err := s.publisher.Publish(ctx, key, env); err != nil {
		s.log.Warn("Bridge publish failed", "key", key, "error", err)
	}
	return nil
}

func toEnvelope(e event.DomainEvent) (string, Envelope, bool) {
	switch evt := e.(type) {
	case event.MessageAppended:
		msg := evt.Message
		data := map[string]any{
			"message_id":   msg.ID.String(),
			"conversation": msg.Conversation,
			"sender":       msg.Sender,
			"kind":         msg.Payload.Kind,
			"sequence":     msg.Sequence,
			"created_at":   msg.CreatedAt,
		}
		return "conversation.message.appended", NewEnvelope("message.appended", msg.CreatedAt, data), true
	case event.MessagesRead:
		data := map[string]any{
			"conversation": evt.ConversationID,
			"reader":       evt.Reader,
			"message_ids":  lo.Map(evt.MessageIDs, func(id uuid.UUID, _ int) string { return id.String() }),
			"at":           evt.At,
		}
		return "conversation.message.read", NewEnvelope("message.read", evt.At, data), true
	case event.PresenceChanged:
		data := map[string]any{
			"conversation": evt.ConversationID,
			"user":         evt.UserID,
			"status":       evt.Status,
			"at":           evt.At,
		}
		return "conversation.presence.changed", NewEnvelope("presence.changed", evt.At, data), true
	default:
		// Typing signals stay inside the relay.
		return "", Envelope{}, false
	}
}
