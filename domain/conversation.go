package domain

import (
	"time"

	"github.com/samber/lo"
)

type ConversationID string

// Conversation is a fixed-participant channel for exchanging messages.
// The participant set is immutable after creation.
type Conversation struct {
	ID           ConversationID
	Participants []UserID
	BookingRef   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewConversation(id ConversationID, participants []UserID, bookingRef string, at time.Time) Conversation {
	return Conversation{
		ID:           id,
		Participants: participants,
		BookingRef:   bookingRef,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func (c Conversation) HasParticipant(user UserID) bool {
	return lo.Contains(c.Participants, user)
}

// Others returns every participant except the given one.
func (c Conversation) Others(user UserID) []UserID {
	return lo.Filter(c.Participants, func(p UserID, _ int) bool {
		return p != user
	})
}
