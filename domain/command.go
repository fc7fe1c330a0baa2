package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is an inbound intent routed to the shard worker
// owning the target conversation.
type Command interface {
	Conversation() ConversationID
}

type AckStatus string

const (
	// AckDelivered means the message is durable and fanned out.
	AckDelivered AckStatus = "delivered"
	// AckPending means the append succeeded in memory but durability
	// is still being retried. Never a silent drop.
	AckPending AckStatus = "pending"
)

// Ack is the router's answer to a send intent.
type Ack struct {
	MessageID uuid.UUID
	Sequence  uint64
	Status    AckStatus
}

type SendResult struct {
	Ack Ack
	Err error
}

type SendMessageCommand struct {
	ConversationID ConversationID
	Sender         UserID
	Payload        Payload
	ReceivedAt     time.Time
	Reply          chan SendResult
}

func (c SendMessageCommand) Conversation() ConversationID { return c.ConversationID }

type MarkReadCommand struct {
	ConversationID ConversationID
	Reader         UserID
	MessageIDs     []uuid.UUID
	Reply          chan error
}

func (c MarkReadCommand) Conversation() ConversationID { return c.ConversationID }
