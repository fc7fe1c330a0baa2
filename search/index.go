// Package search maintains a full-text index over message content.
// It is a projection fed by the fanout pipeline: losing it loses
// search results, never messages.
package search

import (
	"context"
	"log/slog"

	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"

	"github.com/blugelabs/bluge"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

// Consume indexes text messages. Other events and payload kinds are
// ignored: locations and images carry nothing searchable.
func (i *Index) Consume(_ context.Context, e event.DomainEvent) error {
	appended, ok := e.(event.MessageAppended)
	if !ok {
		return nil
	}
	msg := appended.Message
	if msg.Payload.Kind != domain.PayloadText {
		return nil
	}

	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("conversation", string(msg.Conversation)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(msg.Sender)).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Payload.Text).StoreValue())

	return i.writer.Update(doc.ID(), doc)
}

type Hit struct {
	MessageID    string
	Conversation string
	Sender       string
	Content      string
}

// Search matches message content within one conversation.
func (i *Index) Search(ctx context.Context, conversationID domain.ConversationID, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(string(conversationID)).SetField("conversation"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "conversation":
				hit.Conversation = string(value)
			case "sender":
				hit.Sender = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
