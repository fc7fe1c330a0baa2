// This file defines Message entities and ordering rules.
// Messages are immutable and totally ordered per conversation by Sequence.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event.
// Sequence is server-assigned, strictly increasing within a conversation,
// and never reassigned (append-only log).
type Message struct {
	ID           uuid.UUID
	Conversation ConversationID
	Sender       UserID
	Payload      Payload
	Sequence     uint64
	CreatedAt    time.Time
}
