package ws

import (
	"context"

	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
)

// ConnSink adapts one live connection to the fanout pipeline. Frames
// are rendered per viewer so authorship flags come out right on every
// device of every participant.
type ConnSink struct {
	viewer domain.UserID
	client *Client
}

func NewConnSink(viewer domain.UserID, client *Client) ConnSink {
	return ConnSink{viewer: viewer, client: client}
}

func (s ConnSink) Consume(_ context.Context, e event.DomainEvent) error {
	data, err := EncodeEvent(e, s.viewer)
	if err != nil || data == nil {
		return err
	}
	return s.client.Enqueue(data)
}
