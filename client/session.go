// Package client is the connection-side counterpart of the relay: it
// owns the reconnect policy so applications embedding it never manage
// sockets themselves.
package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Conn is one established socket. ReadMessage blocks until a frame
// arrives or the peer goes away.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer establishes sockets. An ErrUnauthenticated result is final:
// the session gives up instead of retrying a bad token.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Session keeps one logical connection alive across socket losses.
// A lost socket is always involuntary from the session's point of
// view unless Close was called first; involuntary losses reconnect
// after a fixed delay, forever, until the context ends or Close runs.
type Session struct {
	log        *slog.Logger
	dialer     Dialer
	clock      contract.Clock
	url        string
	token      string
	retryDelay time.Duration

	mu     sync.Mutex
	conn   Conn
	state  State
	closed bool
	joined map[domain.ConversationID]struct{}

	// Frames receives every inbound frame in arrival order.
	Frames chan []byte
}

func NewSession(log *slog.Logger, dialer Dialer, clock contract.Clock,
	url, token string, retryDelay time.Duration) *Session {
	return &Session{
		log:        log,
		dialer:     dialer,
		clock:      clock,
		url:        url,
		token:      token,
		retryDelay: retryDelay,
		state:      StateDisconnected,
		joined:     make(map[domain.ConversationID]struct{}),
		Frames:     make(chan []byte, 64),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives the connect-read-reconnect loop until the context ends,
// Close is called, or the server refuses the token.
func (s *Session) Run(ctx context.Context) error {
	for {
		if s.isClosed() {
			return nil
		}

		conn, err := s.dialer.Dial(ctx, s.url, s.token)
		if err != nil {
			if stderrors.Is(err, errors.ErrUnauthenticated) {
				return fmt.Errorf("refused by relay: %w", err)
			}
			s.log.Warn("Dial failed, retrying", "delay", s.retryDelay, "error", err)
			if waitErr := s.wait(ctx); waitErr != nil {
				return waitErr
			}
			continue
		}

		s.attach(conn)
		s.log.Info("Connected", "url", s.url)
		if err := s.resubscribe(); err != nil {
			s.log.Warn("Resubscribe failed", "error", err)
		}

		s.readLoop(conn)

		if s.isClosed() {
			return nil
		}
		s.detach()
		s.log.Warn("Connection lost, reconnecting", "delay", s.retryDelay)
		if waitErr := s.wait(ctx); waitErr != nil {
			return waitErr
		}
	}
}

func (s *Session) readLoop(conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.Frames <- data
	}
}

func (s *Session) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.retryDelay):
		return nil
	}
}

func (s *Session) attach(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.state = StateConnected
}

func (s *Session) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
	s.state = StateDisconnected
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends the session for good. The socket teardown it triggers is
// voluntary and never reconnects.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.conn
	s.closed = true
	s.state = StateDisconnected
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) write(frame any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

type frame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Content        *domain.Payload `json:"content,omitempty"`
	MessageIDs     []string        `json:"message_ids,omitempty"`
}

// Join subscribes to a conversation and remembers it, so the
// subscription survives reconnects.
func (s *Session) Join(conversationID domain.ConversationID) error {
	s.mu.Lock()
	s.joined[conversationID] = struct{}{}
	s.mu.Unlock()
	return s.write(frame{Type: "join_conversation", ConversationID: string(conversationID)})
}

func (s *Session) Leave(conversationID domain.ConversationID) error {
	s.mu.Lock()
	delete(s.joined, conversationID)
	s.mu.Unlock()
	return s.write(frame{Type: "leave_conversation", ConversationID: string(conversationID)})
}

func (s *Session) Send(conversationID domain.ConversationID, payload domain.Payload) error {
	return s.write(frame{
		Type:           "send_message",
		ConversationID: string(conversationID),
		Content:        &payload,
	})
}

func (s *Session) MarkRead(conversationID domain.ConversationID, messageIDs []uuid.UUID) error {
	return s.write(frame{
		Type:           "mark_as_read",
		ConversationID: string(conversationID),
		MessageIDs:     lo.Map(messageIDs, func(id uuid.UUID, _ int) string { return id.String() }),
	})
}

func (s *Session) Typing(conversationID domain.ConversationID, started bool) error {
	kind := "typing_stop"
	if started {
		kind = "typing_start"
	}
	return s.write(frame{Type: kind, ConversationID: string(conversationID)})
}

func (s *Session) Idle() error {
	return s.write(frame{Type: "idle"})
}

func (s *Session) Active() error {
	return s.write(frame{Type: "active"})
}

func (s *Session) resubscribe() error {
	s.mu.Lock()
	joined := lo.Keys(s.joined)
	s.mu.Unlock()
	for _, conversationID := range joined {
		if err := s.write(frame{Type: "join_conversation", ConversationID: string(conversationID)}); err != nil {
			return err
		}
	}
	return nil
}
