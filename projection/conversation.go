// Package projection holds the live in-memory view of conversations:
// ordered message logs, participant sets and unread counters.
// It is a cache over durable storage, rebuilt on restart and never
// treated as the source of truth.
package projection

import (
	"fmt"
	"sync"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type conversationState struct {
	conv     domain.Conversation
	messages []domain.Message
	byID     map[uuid.UUID]int
	nextSeq  uint64
	unread   map[domain.UserID]int
	read     map[domain.UserID]map[uuid.UUID]struct{}
}

// Store serves live conversation state without re-querying durable
// storage on every event. Writes come from the shard workers only;
// the lock makes cross-shard reads (membership lookups) safe.
type Store struct {
	mu            sync.RWMutex
	clock         contract.Clock
	conversations map[domain.ConversationID]*conversationState
}

func NewStore(clock contract.Clock) *Store {
	return &Store{
		clock:         clock,
		conversations: make(map[domain.ConversationID]*conversationState),
	}
}

// Admit registers a conversation in the projection. Existing state wins:
// admitting twice is a no-op, the participant set is immutable.
func (s *Store) Admit(conv domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conv.ID]; ok {
		return
	}
	s.conversations[conv.ID] = &conversationState{
		conv:    conv,
		byID:    make(map[uuid.UUID]int),
		nextSeq: 1,
		unread:  make(map[domain.UserID]int),
		read:    make(map[domain.UserID]map[uuid.UUID]struct{}),
	}
}

// Restore rebuilds one conversation from durable storage. Messages must
// already be in sequence order, which badger guarantees via key layout.
func (s *Store) Restore(conv domain.Conversation, messages []domain.Message, readMarks map[domain.UserID][]uuid.UUID) {
	s.Admit(conv)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.conversations[conv.ID]
	state.messages = messages
	for i, m := range messages {
		state.byID[m.ID] = i
		if m.Sequence >= state.nextSeq {
			state.nextSeq = m.Sequence + 1
		}
	}
	for user, ids := range readMarks {
		marks := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			marks[id] = struct{}{}
		}
		state.read[user] = marks
	}
	for _, user := range conv.Participants {
		state.unread[user] = countUnread(state, user)
	}
}

func countUnread(state *conversationState, user domain.UserID) int {
	marks := state.read[user]
	count := 0
	for _, m := range state.messages {
		if m.Sender == user {
			continue
		}
		if _, ok := marks[m.ID]; ok {
			continue
		}
		count++
	}
	return count
}

// Get fails with ErrNotFound: the relay has no implicit-creation policy,
// conversations are created by the booking flow through Admit.
func (s *Store) Get(id domain.ConversationID) (domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	return state.conv, nil
}

// Append validates the sender and payload, assigns the next sequence
// number and the server timestamp, and bumps unread counters for the
// other participants. The sequence is strictly increasing: the shard
// worker is the single writer per conversation and this method holds
// the store lock, so no two messages can share a number.
func (s *Store) Append(id domain.ConversationID, sender domain.UserID, payload domain.Payload) (domain.Message, error) {
	if err := payload.Validate(); err != nil {
		return domain.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.conversations[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	if !state.conv.HasParticipant(sender) {
		return domain.Message{}, fmt.Errorf("%w: %s in %s", errors.ErrNotParticipant, sender, id)
	}

	msg := domain.Message{
		ID:           uuid.New(),
		Conversation: id,
		Sender:       sender,
		Payload:      payload,
		Sequence:     state.nextSeq,
		CreatedAt:    s.clock.Now(),
	}
	state.nextSeq++
	state.byID[msg.ID] = len(state.messages)
	state.messages = append(state.messages, msg)

	for _, user := range state.conv.Participants {
		if user != sender {
			state.unread[user]++
		}
	}
	return msg, nil
}

// MarkRead applies a read receipt and returns the ids that were
// previously unread. Unknown, own, and already-read ids are ignored,
// so the operation is idempotent and two devices sending overlapping
// sets converge on the union.
func (s *Store) MarkRead(id domain.ConversationID, reader domain.UserID, messageIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	if !state.conv.HasParticipant(reader) {
		return nil, fmt.Errorf("%w: %s in %s", errors.ErrNotParticipant, reader, id)
	}

	marks, ok := state.read[reader]
	if !ok {
		marks = make(map[uuid.UUID]struct{})
		state.read[reader] = marks
	}

	var applied []uuid.UUID
	for _, msgID := range messageIDs {
		idx, known := state.byID[msgID]
		if !known {
			continue
		}
		if state.messages[idx].Sender == reader {
			continue
		}
		if _, already := marks[msgID]; already {
			continue
		}
		marks[msgID] = struct{}{}
		applied = append(applied, msgID)
	}

	if state.unread[reader] -= len(applied); state.unread[reader] < 0 {
		state.unread[reader] = 0
	}
	return applied, nil
}

func (s *Store) Unread(id domain.ConversationID, user domain.UserID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.conversations[id]
	if !ok {
		return 0
	}
	return state.unread[user]
}

// ConversationsOf lists every conversation the user participates in,
// which is the audience scope for presence broadcasts.
func (s *Store) ConversationsOf(user domain.UserID) []domain.ConversationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []domain.ConversationID
	for id, state := range s.conversations {
		if state.conv.HasParticipant(user) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Messages returns a copy of the ordered log.
func (s *Store) Messages(id domain.ConversationID) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.conversations[id]
	if !ok {
		return nil
	}
	return lo.Map(state.messages, func(m domain.Message, _ int) domain.Message { return m })
}
