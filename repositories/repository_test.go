package repositories

import (
	"log/slog"
	"testing"
	"time"

	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storeMessages(t *testing.T, repo MessageRepository, conversation domain.ConversationID, count int) []DiskMessage {
	t.Helper()
	var stored []DiskMessage
	for seq := 1; seq <= count; seq++ {
		msg := DiskMessage{
			ID:           uuid.New(),
			Conversation: conversation,
			Sender:       "alice",
			Payload:      domain.TextPayload("message"),
			Sequence:     uint64(seq),
			At:           time.Now().UTC(),
		}
		require.NoError(t, repo.StoreMessage(msg))
		stored = append(stored, msg)
	}
	return stored
}

func TestMessageRepository_MessagesOf(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	repo := NewMessageRepository(db, slog.Default(), nil)

	stored := storeMessages(t, repo, "conv-1", 5)
	storeMessages(t, repo, "conv-other", 3)

	messages, err := repo.MessagesOf("conv-1")
	req.NoError(err)
	req.Len(messages, 5)

	// Forward scan comes back in sequence order.
	for i, msg := range messages {
		req.Equal(uint64(i+1), msg.Sequence)
		req.Equal(stored[i].ID, msg.ID)
		req.Equal(domain.ConversationID("conv-1"), msg.Conversation)
	}
}

func TestMessageRepository_GetMessages(t *testing.T) {
	t.Run("should serve the newest messages first", func(t *testing.T) {
		req := require.New(t)
		db := newTestDB(t)
		repo := NewMessageRepository(db, slog.Default(), nil)
		storeMessages(t, repo, "conv-1", 4)

		messages, _, err := repo.GetMessages("conv-1", nil)
		req.NoError(err)

		sequences := lo.Map(messages, func(m DiskMessage, _ int) uint64 { return m.Sequence })
		req.Equal([]uint64{4, 3, 2, 1}, sequences)
	})

	t.Run("should page backwards through the cursor", func(t *testing.T) {
		req := require.New(t)
		db := newTestDB(t)
		limit := 2
		repo := NewMessageRepository(db, slog.Default(), &limit)
		storeMessages(t, repo, "conv-1", 5)

		first, cursor, err := repo.GetMessages("conv-1", nil)
		req.NoError(err)
		req.Equal([]uint64{5, 4},
			lo.Map(first, func(m DiskMessage, _ int) uint64 { return m.Sequence }))

		second, cursor, err := repo.GetMessages("conv-1", cursor)
		req.NoError(err)
		req.Equal([]uint64{3, 2},
			lo.Map(second, func(m DiskMessage, _ int) uint64 { return m.Sequence }))

		third, cursor, err := repo.GetMessages("conv-1", cursor)
		req.NoError(err)
		req.Equal([]uint64{1},
			lo.Map(third, func(m DiskMessage, _ int) uint64 { return m.Sequence }))

		// Past the oldest message the cursor disappears, telling the
		// client to stop paging.
		fourth, cursor, err := repo.GetMessages("conv-1", cursor)
		req.NoError(err)
		req.Empty(fourth)
		req.Nil(cursor)
	})

	t.Run("should return nothing for an unknown conversation", func(t *testing.T) {
		req := require.New(t)
		db := newTestDB(t)
		repo := NewMessageRepository(db, slog.Default(), nil)

		messages, cursor, err := repo.GetMessages("ghost", nil)
		req.NoError(err)
		req.Empty(messages)
		req.Nil(cursor)
	})
}

func TestConversationRepository(t *testing.T) {
	t.Run("should round-trip a conversation", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))
		conv := DiskConversation{
			ID:           "conv-1",
			Participants: []domain.UserID{"alice", "bob"},
			BookingRef:   "BK-2042",
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
			UpdatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		req.NoError(repo.StoreConversation(conv))

		loaded, err := repo.GetConversation("conv-1")
		req.NoError(err)
		req.Equal(conv.Participants, loaded.Participants)
		req.Equal(conv.BookingRef, loaded.BookingRef)
	})

	t.Run("should report a missing conversation as not found", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))

		_, err := repo.GetConversation("ghost")
		req.ErrorIs(err, errors.ErrNotFound)
	})

	t.Run("should list every stored conversation", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))
		req.NoError(repo.StoreConversation(DiskConversation{ID: "conv-1", Participants: []domain.UserID{"a", "b"}}))
		req.NoError(repo.StoreConversation(DiskConversation{ID: "conv-2", Participants: []domain.UserID{"a", "c"}}))

		convs, err := repo.ListConversations()
		req.NoError(err)
		req.Len(convs, 2)
	})
}

func TestConversationRepository_ReadMarks(t *testing.T) {
	t.Run("should round-trip marks per reader", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))
		first, second := uuid.New(), uuid.New()

		req.NoError(repo.StoreReadMarks("conv-1", "bob", []uuid.UUID{first, second}))
		req.NoError(repo.StoreReadMarks("conv-1", "alice", []uuid.UUID{first}))

		marks, err := repo.ReadMarksOf("conv-1")
		req.NoError(err)
		req.ElementsMatch([]uuid.UUID{first, second}, marks["bob"])
		req.ElementsMatch([]uuid.UUID{first}, marks["alice"])
	})

	t.Run("should keep re-marking idempotent", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))
		id := uuid.New()

		req.NoError(repo.StoreReadMarks("conv-1", "bob", []uuid.UUID{id}))
		req.NoError(repo.StoreReadMarks("conv-1", "bob", []uuid.UUID{id}))

		marks, err := repo.ReadMarksOf("conv-1")
		req.NoError(err)
		req.Equal([]uuid.UUID{id}, marks["bob"])
	})

	t.Run("should scope marks to their conversation", func(t *testing.T) {
		req := require.New(t)
		repo := NewConversationRepository(newTestDB(t))
		req.NoError(repo.StoreReadMarks("conv-1", "bob", []uuid.UUID{uuid.New()}))

		marks, err := repo.ReadMarksOf("conv-2")
		req.NoError(err)
		req.Empty(marks)
	})
}

func TestUserRepository(t *testing.T) {
	t.Run("should create then fetch a user by email", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		id, err := repo.CreateUser("alice@example.com", "hashed", domain.RoleProvider)
		req.NoError(err)
		req.NotEmpty(id)

		user, err := repo.GetUserByEmail("alice@example.com")
		req.NoError(err)
		req.Equal(id, user.ID)
		req.Equal("hashed", user.PasswordHash)
		req.Equal(domain.RoleProvider, user.Role)
	})

	t.Run("should refuse a duplicate email", func(t *testing.T) {
		req := require.New(t)
		repo := NewUserRepository(newTestDB(t))

		_, err := repo.CreateUser("alice@example.com", "hashed", domain.RoleClient)
		req.NoError(err)

		_, err = repo.CreateUser("alice@example.com", "other", domain.RoleClient)
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}
