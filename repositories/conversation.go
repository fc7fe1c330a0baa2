//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	StoreConversation(conv DiskConversation) error
	GetConversation(id domain.ConversationID) (DiskConversation, error)
	ListConversations() ([]DiskConversation, error)
	StoreReadMarks(conversation domain.ConversationID, reader domain.UserID, messageIDs []uuid.UUID) error
	ReadMarksOf(conversation domain.ConversationID) (map[domain.UserID][]uuid.UUID, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) ConversationRepository {
	return ConversationRepository{db: db}
}

type DiskConversation struct {
	ID           domain.ConversationID `json:"id"`
	Participants []domain.UserID       `json:"participants"`
	BookingRef   string                `json:"booking_ref,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func conversationKey(id domain.ConversationID) []byte {
	return []byte("conv:" + id)
}

// readMarkKey formats "read:{conversation}:{reader}:{message_id}".
// One key per acknowledged message keeps writes idempotent: re-marking
// a read message is a blind overwrite of the same key.
func readMarkKey(conversation domain.ConversationID, reader domain.UserID, messageID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("read:%s:%s:%s", conversation, reader, messageID))
}

func (c ConversationRepository) StoreConversation(conv DiskConversation) error {
	bytes, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(conversationKey(conv.ID), bytes)
	})
}

func (c ConversationRepository) GetConversation(id domain.ConversationID) (DiskConversation, error) {
	var conv DiskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conv)
		})
	})
	return conv, err
}

func (c ConversationRepository) ListConversations() ([]DiskConversation, error) {
	var convs []DiskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("conv:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var conv DiskConversation
				if err := json.Unmarshal(val, &conv); err != nil {
					return err
				}
				convs = append(convs, conv)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return convs, err
}

func (c ConversationRepository) StoreReadMarks(conversation domain.ConversationID, reader domain.UserID, messageIDs []uuid.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, id := range messageIDs {
			if err := txn.Set(readMarkKey(conversation, reader, id), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadMarksOf collects every acknowledged message id per reader,
// used to rebuild unread counters at startup.
func (c ConversationRepository) ReadMarksOf(conversation domain.ConversationID) (map[domain.UserID][]uuid.UUID, error) {
	marks := make(map[domain.UserID][]uuid.UUID)
	prefixStr := fmt.Sprintf("read:%s:", conversation)
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			suffix := string(it.Item().Key()[len(prefix):])
			// suffix is "{reader}:{message_id}", message id is the
			// fixed-length uuid tail so readers may contain colons.
			if len(suffix) < 37 {
				continue
			}
			reader := domain.UserID(suffix[:len(suffix)-37])
			id, err := uuid.Parse(suffix[len(suffix)-36:])
			if err != nil {
				continue
			}
			marks[reader] = append(marks[reader], id)
		}
		return nil
	})
	return marks, err
}

func ToDiskConversation(conv domain.Conversation) DiskConversation {
	return DiskConversation{
		ID:           conv.ID,
		Participants: conv.Participants,
		BookingRef:   conv.BookingRef,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func FromDiskConversation(conv DiskConversation) domain.Conversation {
	return domain.Conversation{
		ID:           conv.ID,
		Participants: conv.Participants,
		BookingRef:   conv.BookingRef,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}
