package projection

import (
	"testing"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	convID   = domain.ConversationID("conv-42")
	client   = domain.UserID("client-1")
	provider = domain.UserID("provider-1")
	stranger = domain.UserID("stranger")
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func (c fixedClock) After(time.Duration) <-chan time.Time { return nil }

func (c fixedClock) AfterFunc(time.Duration, func()) contract.Timer { return nil }

func newStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(fixedClock{at: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	store.Admit(domain.NewConversation(convID, []domain.UserID{client, provider}, "booking-7", time.Now()))
	return store
}

func TestStore_Append(t *testing.T) {
	t.Run("should assign strictly increasing sequence numbers", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		first, err := store.Append(convID, client, domain.TextPayload("hello"))
		req.NoError(err)
		second, err := store.Append(convID, provider, domain.TextPayload("hi"))
		req.NoError(err)
		third, err := store.Append(convID, client, domain.TextPayload("when?"))
		req.NoError(err)

		req.Equal(uint64(1), first.Sequence)
		req.Equal(uint64(2), second.Sequence)
		req.Equal(uint64(3), third.Sequence)
	})

	t.Run("should reject a sender outside the participant set", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append(convID, stranger, domain.TextPayload("let me in"))
		req.ErrorIs(err, errors.ErrNotParticipant)
		req.Empty(store.Messages(convID))
	})

	t.Run("should reject an invalid payload before any state change", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append(convID, client, domain.TextPayload("   "))
		req.ErrorIs(err, errors.ErrInvalidPayload)
		req.Zero(store.Unread(convID, provider))
	})

	t.Run("should fail on an unknown conversation", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append("nope", client, domain.TextPayload("hello"))
		req.ErrorIs(err, errors.ErrNotFound)
	})

	t.Run("should bump unread for the others only", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append(convID, client, domain.TextPayload("one"))
		req.NoError(err)
		_, err = store.Append(convID, client, domain.TextPayload("two"))
		req.NoError(err)

		req.Equal(2, store.Unread(convID, provider))
		req.Zero(store.Unread(convID, client))
	})
}

func TestStore_MarkRead(t *testing.T) {
	t.Run("should apply once and converge on overlapping sets", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		first, _ := store.Append(convID, client, domain.TextPayload("one"))
		second, _ := store.Append(convID, client, domain.TextPayload("two"))
		req.Equal(2, store.Unread(convID, provider))

		applied, err := store.MarkRead(convID, provider, []uuid.UUID{first.ID})
		req.NoError(err)
		req.Equal([]uuid.UUID{first.ID}, applied)
		req.Equal(1, store.Unread(convID, provider))

		// Second device re-sends the first id alongside the second one.
		applied, err = store.MarkRead(convID, provider, []uuid.UUID{first.ID, second.ID})
		req.NoError(err)
		req.Equal([]uuid.UUID{second.ID}, applied)
		req.Zero(store.Unread(convID, provider))

		// Full replay applies nothing.
		applied, err = store.MarkRead(convID, provider, []uuid.UUID{first.ID, second.ID})
		req.NoError(err)
		req.Empty(applied)
		req.Zero(store.Unread(convID, provider))
	})

	t.Run("should ignore unknown and own message ids", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		own, _ := store.Append(convID, provider, domain.TextPayload("mine"))

		applied, err := store.MarkRead(convID, provider, []uuid.UUID{own.ID, uuid.New()})
		req.NoError(err)
		req.Empty(applied)
	})

	t.Run("should reject a reader outside the participant set", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		msg, _ := store.Append(convID, client, domain.TextPayload("hello"))
		_, err := store.MarkRead(convID, stranger, []uuid.UUID{msg.ID})
		req.ErrorIs(err, errors.ErrNotParticipant)
	})
}

func TestStore_Restore(t *testing.T) {
	t.Run("should resume sequence numbering after the restored log", func(t *testing.T) {
		req := require.New(t)
		store := NewStore(fixedClock{at: time.Now()})
		conv := domain.NewConversation(convID, []domain.UserID{client, provider}, "", time.Now())

		restored := []domain.Message{
			{ID: uuid.New(), Conversation: convID, Sender: client, Payload: domain.TextPayload("one"), Sequence: 1},
			{ID: uuid.New(), Conversation: convID, Sender: client, Payload: domain.TextPayload("two"), Sequence: 2},
		}
		store.Restore(conv, restored, nil)

		next, err := store.Append(convID, provider, domain.TextPayload("three"))
		req.NoError(err)
		req.Equal(uint64(3), next.Sequence)
	})

	t.Run("should rebuild unread counters from read marks", func(t *testing.T) {
		req := require.New(t)
		store := NewStore(fixedClock{at: time.Now()})
		conv := domain.NewConversation(convID, []domain.UserID{client, provider}, "", time.Now())

		read := uuid.New()
		restored := []domain.Message{
			{ID: read, Conversation: convID, Sender: client, Payload: domain.TextPayload("seen"), Sequence: 1},
			{ID: uuid.New(), Conversation: convID, Sender: client, Payload: domain.TextPayload("unseen"), Sequence: 2},
		}
		store.Restore(conv, restored, map[domain.UserID][]uuid.UUID{
			provider: {read},
		})

		req.Equal(1, store.Unread(convID, provider))
		req.Zero(store.Unread(convID, client))
	})

	t.Run("admitting an existing conversation keeps its state", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		msg, _ := store.Append(convID, client, domain.TextPayload("kept"))
		store.Admit(domain.NewConversation(convID, []domain.UserID{client, provider}, "", time.Now()))

		messages := store.Messages(convID)
		req.Len(messages, 1)
		req.Equal(msg.ID, messages[0].ID)
	})
}

func TestStore_ConversationsOf(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	other := domain.ConversationID("conv-43")
	store.Admit(domain.NewConversation(other, []domain.UserID{client, stranger}, "", time.Now()))

	req.ElementsMatch([]domain.ConversationID{convID, other}, store.ConversationsOf(client))
	req.Equal([]domain.ConversationID{other}, store.ConversationsOf(stranger))
	req.Empty(store.ConversationsOf("nobody"))
}
