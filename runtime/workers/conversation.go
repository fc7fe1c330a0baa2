package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"bluecollar-chat/errors"
	"bluecollar-chat/moderation"
	"bluecollar-chat/projection"
	"bluecollar-chat/repositories"

	"github.com/google/uuid"
)

// Ensure *ConversationWorker implements the contract at compile time.
var _ contract.Worker = (*ConversationWorker)(nil)

// ConversationWorker is the single writer for a shard of conversations.
// Commands for one conversation always land on the same shard, which
// preserves append order; a slow storage write in this shard never
// stalls delivery in the others.
type ConversationWorker struct {
	store          *projection.Store
	moderator      *moderation.Moderator
	messages       repositories.IMessageRepository
	conversations  repositories.IConversationRepository
	commands       chan domain.Command
	events         chan event.DomainEvent
	clock          contract.Clock
	log            *slog.Logger
	storageRetries int
	retryDelay     time.Duration
}

func NewConversationWorker(
	store *projection.Store,
	moderator *moderation.Moderator,
	messages repositories.IMessageRepository,
	conversations repositories.IConversationRepository,
	commands chan domain.Command,
	events chan event.DomainEvent,
	clock contract.Clock,
	log *slog.Logger,
	storageRetries int,
	retryDelay time.Duration) *ConversationWorker {
	return &ConversationWorker{
		store:          store,
		moderator:      moderator,
		messages:       messages,
		conversations:  conversations,
		commands:       commands,
		events:         events,
		clock:          clock,
		log:            log,
		storageRetries: storageRetries,
		retryDelay:     retryDelay,
	}
}

func (w *ConversationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			switch c := cmd.(type) {
			case domain.SendMessageCommand:
				w.handleSend(ctx, c)
			case domain.MarkReadCommand:
				w.handleMarkRead(ctx, c)
			default:
				w.log.Warn(fmt.Sprintf("Unknown command %T for %s", cmd, cmd.Conversation()))
			}
		}
	}
}

// handleSend appends, persists, acknowledges, then fans out.
// Validation failures go back to the sender only; no fan-out happens.
// A persistence failure after retries downgrades the ack to pending,
// the message is never silently dropped.
func (w *ConversationWorker) handleSend(ctx context.Context, cmd domain.SendMessageCommand) {
	payload := w.moderate(cmd.Payload)

	msg, err := w.store.Append(cmd.ConversationID, cmd.Sender, payload)
	if err != nil {
		w.reply(ctx, cmd.Reply, domain.SendResult{Err: err})
		return
	}

	status := domain.AckDelivered
	if err := w.persistMessage(ctx, msg); err != nil {
		w.log.Error("Message persistence exhausted retries",
			"conversation", msg.Conversation,
			"sequence", msg.Sequence,
			"error", err)
		status = domain.AckPending
	}

	w.reply(ctx, cmd.Reply, domain.SendResult{
		Ack: domain.Ack{MessageID: msg.ID, Sequence: msg.Sequence, Status: status},
	})

	select {
	case <-ctx.Done():
	case w.events <- event.MessageAppended{Message: msg}:
	}
}

// handleMarkRead applies the receipt and broadcasts only the ids that
// were previously unread. Re-sending the same set is a no-op.
func (w *ConversationWorker) handleMarkRead(ctx context.Context, cmd domain.MarkReadCommand) {
	applied, err := w.store.MarkRead(cmd.ConversationID, cmd.Reader, cmd.MessageIDs)
	if err != nil {
		w.replyErr(ctx, cmd.Reply, err)
		return
	}

	if len(applied) > 0 {
		if err := w.persistReadMarks(ctx, cmd.ConversationID, cmd.Reader, applied); err != nil {
			w.log.Error("Read mark persistence exhausted retries",
				"conversation", cmd.ConversationID,
				"reader", cmd.Reader,
				"error", err)
		}
	}

	w.replyErr(ctx, cmd.Reply, nil)

	if len(applied) == 0 {
		return
	}
	select {
	case <-ctx.Done():
	case w.events <- event.MessagesRead{
		ConversationID: cmd.ConversationID,
		Reader:         cmd.Reader,
		MessageIDs:     applied,
		At:             w.clock.Now(),
	}:
	}
}

// moderate masks forbidden words in text payloads. Other payload kinds
// pass through untouched.
func (w *ConversationWorker) moderate(payload domain.Payload) domain.Payload {
	if w.moderator == nil || payload.Kind != domain.PayloadText {
		return payload
	}
	sanitized, found := w.moderator.Censor(payload.Text)
	if len(found) > 0 {
		w.log.Warn("Message content masked",
			"lang", moderation.DetectLanguage(payload.Text),
			"words", len(found))
		payload.Text = sanitized
	}
	return payload
}

func (w *ConversationWorker) persistMessage(ctx context.Context, msg domain.Message) error {
	return w.withRetry(ctx, func() error {
		return w.messages.StoreMessage(repositories.ToDiskMessage(msg))
	})
}

func (w *ConversationWorker) persistReadMarks(ctx context.Context, conv domain.ConversationID, reader domain.UserID, ids []uuid.UUID) error {
	return w.withRetry(ctx, func() error {
		return w.conversations.StoreReadMarks(conv, reader, ids)
	})
}

// withRetry runs the write with bounded backoff. The delay grows
// linearly with the attempt number.
func (w *ConversationWorker) withRetry(ctx context.Context, write func() error) error {
	var err error
	for attempt := 1; attempt <= w.storageRetries; attempt++ {
		if err = write(); err == nil {
			return nil
		}
		if attempt == w.storageRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(time.Duration(attempt) * w.retryDelay):
		}
	}
	return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
}

func (w *ConversationWorker) reply(ctx context.Context, ch chan domain.SendResult, res domain.SendResult) {
	if ch == nil {
		return
	}
	select {
	case <-ctx.Done():
	case ch <- res:
	}
}

func (w *ConversationWorker) replyErr(ctx context.Context, ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case <-ctx.Done():
	case ch <- err:
	}
}
