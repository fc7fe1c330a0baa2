package runtime

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"bluecollar-chat/errors"
	"bluecollar-chat/moderation"
	"bluecollar-chat/projection"
	"bluecollar-chat/repositories"
	"bluecollar-chat/runtime/workers"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Options struct {
	Shards         int
	BufferSize     int
	SinkTimeout    time.Duration
	StorageRetries int
	RetryDelay     time.Duration
	MetricInterval time.Duration
}

// Orchestrator wires the shard workers, the fanout pipeline and the
// projection together. Commands enter through Dispatch and are routed
// by conversation id, so one conversation is always handled by the
// same single-writer worker.
type Orchestrator struct {
	log            *slog.Logger
	opts           Options
	store          *projection.Store
	registry       contract.IRegistry
	supervisor     contract.ISupervisor
	moderator      *moderation.Moderator
	messages       repositories.IMessageRepository
	conversations  repositories.IConversationRepository
	clock          contract.Clock
	permanentSinks []contract.EventSink
	shards         []chan domain.Command
	events         chan event.DomainEvent
	telemetry      chan event.DomainEvent
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	store *projection.Store, moderator *moderation.Moderator,
	messages repositories.IMessageRepository, conversations repositories.IConversationRepository,
	clock contract.Clock, opts Options) *Orchestrator {
	shards := make([]chan domain.Command, opts.Shards)
	for i := range shards {
		shards[i] = make(chan domain.Command, opts.BufferSize)
	}
	return &Orchestrator{
		log:           log,
		opts:          opts,
		store:         store,
		registry:      registry,
		supervisor:    supervisor,
		moderator:     moderator,
		messages:      messages,
		conversations: conversations,
		clock:         clock,
		shards:        shards,
		events:        make(chan event.DomainEvent, opts.BufferSize),
		telemetry:     make(chan event.DomainEvent, opts.BufferSize),
	}
}

// Events exposes the pipeline entry used by the presence tracker.
func (o *Orchestrator) Events() chan<- event.DomainEvent {
	return o.events
}

// Add registers permanent sinks (search index, event bridge) that
// receive every domain event alongside the live connections.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Rebuild loads every conversation, its message log and its read marks
// from durable storage into the projection. The projection is a cache:
// storage stays the source of truth across restarts.
func (o *Orchestrator) Rebuild() error {
	convs, err := o.conversations.ListConversations()
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}
	for _, diskConv := range convs {
		conv := repositories.FromDiskConversation(diskConv)

		diskMessages, err := o.messages.MessagesOf(conv.ID)
		if err != nil {
			return fmt.Errorf("loading messages of %s: %w", conv.ID, err)
		}
		readMarks, err := o.conversations.ReadMarksOf(conv.ID)
		if err != nil {
			return fmt.Errorf("loading read marks of %s: %w", conv.ID, err)
		}

		o.store.Restore(conv, repositories.FromDiskMessages(diskMessages), readMarks)
	}
	o.log.Info(fmt.Sprintf("%d conversations restored from storage", len(convs)))
	return nil
}

// CreateConversation persists a new fixed-participant conversation and
// admits it into the projection. Called by the booking flow.
func (o *Orchestrator) CreateConversation(id domain.ConversationID, participants []domain.UserID, bookingRef string) (domain.Conversation, error) {
	if len(participants) < 2 {
		return domain.Conversation{}, fmt.Errorf("%w: a conversation needs at least two participants", errors.ErrInvalidPayload)
	}
	conv := domain.NewConversation(id, participants, bookingRef, o.clock.Now())
	if err := o.conversations.StoreConversation(repositories.ToDiskConversation(conv)); err != nil {
		return domain.Conversation{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	o.store.Admit(conv)
	return conv, nil
}

func (o *Orchestrator) shardFor(id domain.ConversationID) chan domain.Command {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return o.shards[int(h.Sum32())%len(o.shards)]
}

// Dispatch routes a command to the shard owning its conversation.
// A full shard rejects instead of blocking the caller's read pump.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case o.shardFor(cmd.Conversation()) <- cmd:
		return nil
	default:
		o.log.Warn(fmt.Sprintf("Shard full for conversation %s, rejecting command", cmd.Conversation()))
		return errors.ErrEngineBusy
	}
}

// SendMessage dispatches a send intent and waits for the shard's ack.
func (o *Orchestrator) SendMessage(ctx context.Context, conversationID domain.ConversationID,
	sender domain.UserID, payload domain.Payload) (domain.Ack, error) {
	reply := make(chan domain.SendResult, 1)
	cmd := domain.SendMessageCommand{
		ConversationID: conversationID,
		Sender:         sender,
		Payload:        payload,
		ReceivedAt:     o.clock.Now(),
		Reply:          reply,
	}
	if err := o.Dispatch(ctx, cmd); err != nil {
		return domain.Ack{}, err
	}
	select {
	case <-ctx.Done():
		return domain.Ack{}, ctx.Err()
	case res := <-reply:
		return res.Ack, res.Err
	}
}

// MarkRead dispatches a read receipt and waits for it to apply.
func (o *Orchestrator) MarkRead(ctx context.Context, conversationID domain.ConversationID,
	reader domain.UserID, messageIDs []uuid.UUID) error {
	reply := make(chan error, 1)
	cmd := domain.MarkReadCommand{
		ConversationID: conversationID,
		Reader:         reader,
		MessageIDs:     messageIDs,
		Reply:          reply,
	}
	if err := o.Dispatch(ctx, cmd); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-reply:
		return err
	}
}

// Relay pushes a pass-through event (typing signals) straight into the
// fanout pipeline, skipping validation and persistence.
func (o *Orchestrator) Relay(ctx context.Context, evt event.DomainEvent) {
	select {
	case <-ctx.Done():
	case o.events <- evt:
	}
}

// GetMessages pages through durable history, newest first.
func (o *Orchestrator) GetMessages(conversationID domain.ConversationID, cursor *string) ([]domain.Message, *string, error) {
	messages, next, err := o.messages.GetMessages(conversationID, cursor)
	if err != nil {
		return nil, nil, err
	}
	return repositories.FromDiskMessages(messages), next, nil
}

// JoinConversation subscribes a live connection to a conversation it
// participates in.
func (o *Orchestrator) JoinConversation(user domain.UserID, connID string, conversationID domain.ConversationID) error {
	conv, err := o.store.Get(conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(user) {
		return fmt.Errorf("%w: %s in %s", errors.ErrNotParticipant, user, conversationID)
	}
	o.registry.Subscribe(connID, conversationID)
	return nil
}

func (o *Orchestrator) LeaveConversation(connID string, conversationID domain.ConversationID) {
	o.registry.Unsubscribe(connID, conversationID)
}

func (o *Orchestrator) Unread(conversationID domain.ConversationID, user domain.UserID) int {
	return o.store.Unread(conversationID, user)
}

// Start registers all workers with the supervisor and launches them.
// It returns immediately; Stop triggers the graceful shutdown.
func (o *Orchestrator) Start(ctx context.Context) {
	for _, shard := range o.shards {
		o.supervisor.Add(workers.NewConversationWorker(
			o.store, o.moderator, o.messages, o.conversations,
			shard, o.events, o.clock, o.log,
			o.opts.StorageRetries, o.opts.RetryDelay,
		))
	}

	o.supervisor.Add(workers.NewEventFanout(
		o.log, o.permanentSinks, o.registry,
		o.events, o.telemetry, o.opts.SinkTimeout,
	))

	o.supervisor.Add(workers.NewTelemetryWorker(o.log, o.opts.MetricInterval, o.gauges(), o.telemetry))

	o.log.Info("Starting orchestrator and all supervised workers",
		"shards", len(o.shards))
	go o.supervisor.Run(ctx)
}

func (o *Orchestrator) gauges() []workers.ChannelGauge {
	gauges := lo.Map(o.shards, func(shard chan domain.Command, i int) workers.ChannelGauge {
		return workers.ChannelGauge{
			Name:     fmt.Sprintf("shard_%d", i),
			Capacity: cap(shard),
			Length:   func() int { return len(shard) },
		}
	})
	return append(gauges, workers.ChannelGauge{
		Name:     "events",
		Capacity: cap(o.events),
		Length:   func() int { return len(o.events) },
	})
}

// Stop cancels the supervised context; workers drain and exit.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
