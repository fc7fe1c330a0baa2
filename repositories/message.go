//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bluecollar-chat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(conversation domain.ConversationID, cursor *string) ([]DiskMessage, *string, error)
	MessagesOf(conversation domain.ConversationID) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the storage-layer representation of a message.
type DiskMessage struct {
	ID           uuid.UUID             `json:"id"`
	Conversation domain.ConversationID `json:"conversation"`
	Sender       domain.UserID         `json:"sender"`
	Payload      domain.Payload        `json:"payload"`
	Sequence     uint64                `json:"sequence"`
	At           time.Time             `json:"at"`
}

// messageKey formats "msg:{conversation}:{sequence_padded}".
// The 19-digit zero padding makes lexicographic order equal sequence
// order, so prefix scans return messages already sorted.
func messageKey(conversation domain.ConversationID, sequence uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", conversation, sequence))
}

func messagePrefix(conversation domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", conversation))
}

// StoreMessage persists a message in BadgerDB. Sequence numbers are
// unique per conversation, so the key needs no collision disconnector.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.Conversation, message.Sequence), bytes)
	})
}

// GetMessages pages backwards through a conversation's history, newest
// first, for the initial history fetch. The returned cursor is the key
// suffix of the oldest message served; a nil cursor marks the end of
// history.
func (m MessageRepository) GetMessages(conversation domain.ConversationID, cursor *string) ([]DiskMessage, *string, error) {
	var raw [][]byte
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversation)
		prefixLen := len(prefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible sequence, then walk back.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages, err := decodeMessages(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(messages) == 0 {
		return nil, nil, nil
	}
	return messages, &lastKey, nil
}

// MessagesOf scans a whole conversation forwards, in sequence order.
// Used once per conversation at startup to rebuild the projection.
func (m MessageRepository) MessagesOf(conversation domain.ConversationID) ([]DiskMessage, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversation)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeMessages(raw)
}

func decodeMessages(raw [][]byte) ([]DiskMessage, error) {
	var messages []DiskMessage
	for _, b := range raw {
		var msg DiskMessage
		if err := json.Unmarshal(b, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func ToDiskMessage(msg domain.Message) DiskMessage {
	return DiskMessage{
		ID:           msg.ID,
		Conversation: msg.Conversation,
		Sender:       msg.Sender,
		Payload:      msg.Payload,
		Sequence:     msg.Sequence,
		At:           msg.CreatedAt,
	}
}

func FromDiskMessages(messages []DiskMessage) []domain.Message {
	return lo.Map(messages, func(item DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:           item.ID,
			Conversation: item.Conversation,
			Sender:       item.Sender,
			Payload:      item.Payload,
			Sequence:     item.Sequence,
			CreatedAt:    item.At,
		}
	})
}
