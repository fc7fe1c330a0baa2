// Package bridge publishes domain events to a RabbitMQ topic exchange
// so sibling services (notifications, analytics) can react without
// holding a socket into the relay.
package bridge

import "time"

type Meta struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	OccurredAt    string  `json:"occurred_at"`
	CorrelationID *string `json:"correlation_id,omitempty"`
}

// Envelope is the wire format: routing metadata plus the event body.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

func NewEnvelope(eventType string, at time.Time, data any) Envelope {
	return Envelope{
		Meta: Meta{
			Type:       eventType,
			OccurredAt: at.UTC().Format(time.RFC3339Nano),
		},
		Data: data,
	}
}
