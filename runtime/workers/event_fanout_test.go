package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"bluecollar-chat/mocks"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

const fanConv = domain.ConversationID("conv-9")

func TestEventFanout_NewMessageReachesEveryDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sender := domain.UserID("sender")
	reader := domain.UserID("reader")

	senderSink := mocks.NewMockEventSink(ctrl)
	readerSink := mocks.NewMockEventSink(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(fanConv).Return([]contract.Recipient{
		{User: sender, Sink: senderSink},
		{User: reader, Sink: readerSink},
	})

	evt := event.MessageAppended{Message: domain.Message{
		ID:           uuid.New(),
		Conversation: fanConv,
		Sender:       sender,
		Payload:      domain.TextPayload("hello"),
		Sequence:     1,
	}}

	// Both participants receive the append, the sender's device included.
	senderSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	readerSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	fanout := NewEventFanout(slog.Default(), nil, registry,
		make(chan event.DomainEvent), make(chan event.DomainEvent, 1), time.Second)
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_ReceiptSkipsTheReader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sender := domain.UserID("sender")
	reader := domain.UserID("reader")

	senderSink := mocks.NewMockEventSink(ctrl)
	readerSink := mocks.NewMockEventSink(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(fanConv).Return([]contract.Recipient{
		{User: sender, Sink: senderSink},
		{User: reader, Sink: readerSink},
	})

	evt := event.MessagesRead{
		ConversationID: fanConv,
		Reader:         reader,
		MessageIDs:     []uuid.UUID{uuid.New()},
		At:             time.Now(),
	}

	senderSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	readerSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Times(0)

	fanout := NewEventFanout(slog.Default(), nil, registry,
		make(chan event.DomainEvent), make(chan event.DomainEvent, 1), time.Second)
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_PermanentSinksSeeEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := domain.UserID("typer")
	permanent := mocks.NewMockEventSink(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(fanConv).Return(nil).AnyTimes()

	evt := event.TypingStarted{ConversationID: fanConv, UserID: user}
	permanent.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	fanout := NewEventFanout(slog.Default(), []contract.EventSink{permanent}, registry,
		make(chan event.DomainEvent), make(chan event.DomainEvent, 1), time.Second)
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_SinkErrorDoesNotStopDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failing := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(fanConv).Return([]contract.Recipient{
		{User: "a", Sink: failing},
		{User: "b", Sink: healthy},
	})

	evt := event.MessageAppended{Message: domain.Message{Conversation: fanConv, Sender: "c"}}
	failing.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded).Times(1)
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	fanout := NewEventFanout(slog.Default(), nil, registry,
		make(chan event.DomainEvent), make(chan event.DomainEvent, 1), time.Second)
	fanout.Fanout(context.Background(), evt)
}
