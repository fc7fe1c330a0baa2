package services

import (
	"context"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"bluecollar-chat/runtime"
	"bluecollar-chat/search"

	"github.com/google/uuid"
)

type IChatService interface {
	Connect(user domain.UserID, connID string, sink contract.EventSink)
	Disconnect(connID string, user domain.UserID)
	Send(ctx context.Context, conversationID domain.ConversationID, sender domain.UserID, payload domain.Payload) (domain.Ack, error)
	MarkRead(ctx context.Context, conversationID domain.ConversationID, reader domain.UserID, messageIDs []uuid.UUID) error
	Join(user domain.UserID, connID string, conversationID domain.ConversationID) error
	Leave(connID string, conversationID domain.ConversationID)
	Typing(ctx context.Context, conversationID domain.ConversationID, user domain.UserID, started bool)
	Idle(user domain.UserID)
	Active(user domain.UserID)
	History(conversationID domain.ConversationID, cursor *string) ([]domain.Message, *string, error)
	Unread(conversationID domain.ConversationID, user domain.UserID) int
	Search(ctx context.Context, conversationID domain.ConversationID, terms string, limit int) ([]search.Hit, error)
}

// ChatService is the facade the transports talk to. It owns no state
// of its own; it binds the registry, the presence tracker and the
// orchestrator into one connection lifecycle.
type ChatService struct {
	orchestrator *runtime.Orchestrator
	registry     contract.IRegistry
	presence     *runtime.PresenceTracker
	index        *search.Index
}

func NewChatService(o *runtime.Orchestrator, registry contract.IRegistry,
	presence *runtime.PresenceTracker, index *search.Index) *ChatService {
	return &ChatService{orchestrator: o, registry: registry, presence: presence, index: index}
}

// Connect registers a device. Each device gets its own connection id,
// a user may hold several at once.
func (s *ChatService) Connect(user domain.UserID, connID string, sink contract.EventSink) {
	s.registry.Register(user, connID, sink)
	s.presence.ConnectionOpened(user)
}

// Disconnect drops the device. Presence only flips to offline once the
// last device is gone and the debounce window has passed.
func (s *ChatService) Disconnect(connID string, user domain.UserID) {
	s.registry.Deregister(connID)
	s.presence.ConnectionClosed(user)
}

func (s *ChatService) Send(ctx context.Context, conversationID domain.ConversationID,
	sender domain.UserID, payload domain.Payload) (domain.Ack, error) {
	return s.orchestrator.SendMessage(ctx, conversationID, sender, payload)
}

func (s *ChatService) MarkRead(ctx context.Context, conversationID domain.ConversationID,
	reader domain.UserID, messageIDs []uuid.UUID) error {
	return s.orchestrator.MarkRead(ctx, conversationID, reader, messageIDs)
}

func (s *ChatService) Join(user domain.UserID, connID string, conversationID domain.ConversationID) error {
	return s.orchestrator.JoinConversation(user, connID, conversationID)
}

func (s *ChatService) Leave(connID string, conversationID domain.ConversationID) {
	s.orchestrator.LeaveConversation(connID, conversationID)
}

// Typing relays the signal straight to the other participants, nothing
// is validated or persisted.
func (s *ChatService) Typing(ctx context.Context, conversationID domain.ConversationID, user domain.UserID, started bool) {
	if started {
		s.orchestrator.Relay(ctx, event.TypingStarted{ConversationID: conversationID, UserID: user})
		return
	}
	s.orchestrator.Relay(ctx, event.TypingStopped{ConversationID: conversationID, UserID: user})
}

func (s *ChatService) Idle(user domain.UserID) {
	s.presence.Idle(user)
}

func (s *ChatService) Active(user domain.UserID) {
	s.presence.Active(user)
}

func (s *ChatService) History(conversationID domain.ConversationID, cursor *string) ([]domain.Message, *string, error) {
	return s.orchestrator.GetMessages(conversationID, cursor)
}

func (s *ChatService) Unread(conversationID domain.ConversationID, user domain.UserID) int {
	return s.orchestrator.Unread(conversationID, user)
}

func (s *ChatService) Search(ctx context.Context, conversationID domain.ConversationID, terms string, limit int) ([]search.Hit, error) {
	return s.index.Search(ctx, conversationID, terms, limit)
}
