// Package ws is the websocket transport: handshake authentication,
// read/write pumps, and the JSON frame protocol.
//
// Inbound frames become explicit typed variants dispatched through a
// single router, so handling can be tested with exhaustive switches
// instead of implicit handler wiring.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"bluecollar-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	inboundSendMessage = "send_message"
	inboundJoin        = "join_conversation"
	inboundLeave       = "leave_conversation"
	inboundMarkRead    = "mark_as_read"
	inboundIdle        = "idle"
	inboundActive      = "active"
	inboundTypingStart = "typing_start"
	inboundTypingStop  = "typing_stop"
)

type inboundFrame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Content        *domain.Payload `json:"content,omitempty"`
	MessageIDs     []string        `json:"message_ids,omitempty"`
}

// InboundEvent is the decoded client intent.
type InboundEvent interface{ isInbound() }

type SendMessage struct {
	ConversationID domain.ConversationID
	Payload        domain.Payload
}

type JoinConversation struct{ ConversationID domain.ConversationID }

type LeaveConversation struct{ ConversationID domain.ConversationID }

type MarkAsRead struct {
	ConversationID domain.ConversationID
	MessageIDs     []uuid.UUID
}

type Idle struct{}

type Active struct{}

type TypingStart struct{ ConversationID domain.ConversationID }

type TypingStop struct{ ConversationID domain.ConversationID }

func (SendMessage) isInbound()       {}
func (JoinConversation) isInbound()  {}
func (LeaveConversation) isInbound() {}
func (MarkAsRead) isInbound()        {}
func (Idle) isInbound()              {}
func (Active) isInbound()            {}
func (TypingStart) isInbound()       {}
func (TypingStop) isInbound()        {}

// DecodeInbound parses one client frame. Anything malformed maps to
// ErrInvalidPayload so the caller answers with an error frame instead
// of dropping the connection.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	conv := domain.ConversationID(frame.ConversationID)
	switch frame.Type {
	case inboundSendMessage:
		if frame.Content == nil {
			return nil, fmt.Errorf("%w: send_message without content", errors.ErrInvalidPayload)
		}
		return SendMessage{ConversationID: conv, Payload: *frame.Content}, nil
	case inboundJoin:
		return JoinConversation{ConversationID: conv}, nil
	case inboundLeave:
		return LeaveConversation{ConversationID: conv}, nil
	case inboundMarkRead:
		ids := make([]uuid.UUID, 0, len(frame.MessageIDs))
		for _, raw := range frame.MessageIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bad message id %q", errors.ErrInvalidPayload, raw)
			}
			ids = append(ids, id)
		}
		return MarkAsRead{ConversationID: conv, MessageIDs: ids}, nil
	case inboundIdle:
		return Idle{}, nil
	case inboundActive:
		return Active{}, nil
	case inboundTypingStart:
		return TypingStart{ConversationID: conv}, nil
	case inboundTypingStop:
		return TypingStop{ConversationID: conv}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidPayload, frame.Type)
	}
}

type outboundMessage struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Sender         string         `json:"sender"`
	Payload        domain.Payload `json:"payload"`
	Sequence       uint64         `json:"sequence"`
	CreatedAt      time.Time      `json:"created_at"`
	Mine           bool           `json:"mine"`
}

type outboundFrame struct {
	Type           string           `json:"type"`
	Message        *outboundMessage `json:"message,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty"`
	MessageIDs     []string         `json:"message_ids,omitempty"`
	ReadBy         string           `json:"read_by,omitempty"`
	UserID         string           `json:"user_id,omitempty"`
	Status         string           `json:"status,omitempty"`
	Code           string           `json:"code,omitempty"`
	Detail         string           `json:"detail,omitempty"`
	MessageID      string           `json:"message_id,omitempty"`
	Sequence       uint64           `json:"sequence,omitempty"`
}

// EncodeEvent renders a domain event for one viewer. The authorship
// flag is computed here, relative to the receiving identity.
func EncodeEvent(e event.DomainEvent, viewer domain.UserID) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageAppended:
		msg := evt.Message
		return json.Marshal(outboundFrame{
			Type: "new_message",
			Message: &outboundMessage{
				ID:             msg.ID.String(),
				ConversationID: string(msg.Conversation),
				Sender:         string(msg.Sender),
				Payload:        msg.Payload,
				Sequence:       msg.Sequence,
				CreatedAt:      msg.CreatedAt,
				Mine:           msg.Sender == viewer,
			},
		})
	case event.MessagesRead:
		return json.Marshal(outboundFrame{
			Type:           "message_read",
			ConversationID: string(evt.ConversationID),
			MessageIDs:     lo.Map(evt.MessageIDs, func(id uuid.UUID, _ int) string { return id.String() }),
			ReadBy:         string(evt.Reader),
		})
	case event.PresenceChanged:
		return json.Marshal(outboundFrame{
			Type:           "user_online",
			ConversationID: string(evt.ConversationID),
			UserID:         string(evt.UserID),
			Status:         string(evt.Status),
		})
	case event.TypingStarted:
		return json.Marshal(outboundFrame{
			Type:           "typing_start",
			ConversationID: string(evt.ConversationID),
			UserID:         string(evt.UserID),
		})
	case event.TypingStopped:
		return json.Marshal(outboundFrame{
			Type:           "typing_stop",
			ConversationID: string(evt.ConversationID),
			UserID:         string(evt.UserID),
		})
	default:
		return nil, nil
	}
}

// EncodeError builds the error frame reported only to the originating
// connection. Other connections never see it.
func EncodeError(err error) []byte {
	data, _ := json.Marshal(outboundFrame{
		Type:   "error",
		Code:   string(errors.MapToCode(err)),
		Detail: err.Error(),
	})
	return data
}

// EncodeAck answers a send intent with the assigned id and sequence.
func EncodeAck(ack domain.Ack) []byte {
	data, _ := json.Marshal(outboundFrame{
		Type:      "ack",
		MessageID: ack.MessageID.String(),
		Sequence:  ack.Sequence,
		Status:    string(ack.Status),
	})
	return data
}
