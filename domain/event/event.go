// Package event defines the typed domain events fanned out to live
// connections and projection sinks. Each inbound intent becomes an
// explicit variant here, dispatched through a single router, so
// handling can be tested with exhaustive switches.
package event

import (
	"time"

	"bluecollar-chat/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	Conversation() domain.ConversationID
}

// MessageAppended is emitted once per durable-or-pending append,
// and delivered to every live connection of every participant.
type MessageAppended struct {
	Message domain.Message
}

func (e MessageAppended) Conversation() domain.ConversationID {
	return e.Message.Conversation
}

// MessagesRead is broadcast to the other participants after
// a read receipt is applied.
type MessagesRead struct {
	ConversationID domain.ConversationID
	Reader         domain.UserID
	MessageIDs     []uuid.UUID
	At             time.Time
}

func (e MessagesRead) Conversation() domain.ConversationID { return e.ConversationID }

// PresenceChanged is fanned out once per conversation the affected
// identity shares with somebody.
type PresenceChanged struct {
	ConversationID domain.ConversationID
	UserID         domain.UserID
	Status         domain.PresenceStatus
	At             time.Time
}

func (e PresenceChanged) Conversation() domain.ConversationID { return e.ConversationID }

// TypingStarted and TypingStopped are pass-through signals,
// relayed without server-side validation.
type TypingStarted struct {
	ConversationID domain.ConversationID
	UserID         domain.UserID
}

func (e TypingStarted) Conversation() domain.ConversationID { return e.ConversationID }

type TypingStopped struct {
	ConversationID domain.ConversationID
	UserID         domain.UserID
}

func (e TypingStopped) Conversation() domain.ConversationID { return e.ConversationID }
