//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Panics and restarts are the supervisor's problem.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives domain events fanned out by the engine.
// A sink must never block longer than the fanout timeout.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Recipient pairs a live connection's sink with the identity owning it,
// so fanout can exclude the originator of an event.
type Recipient struct {
	User domain.UserID
	Sink EventSink
}

// IRegistry tracks live connections, their identities and conversation membership.
type IRegistry interface {
	Register(user domain.UserID, connID string, sink EventSink)
	Deregister(connID string)
	Subscribe(connID string, conversationID domain.ConversationID)
	Unsubscribe(connID string, conversationID domain.ConversationID)
	SinksFor(conversationID domain.ConversationID) []Recipient
	SinksForUser(user domain.UserID) []EventSink
	Connections(user domain.UserID) int
}

// Timer is a cancellable delayed task, see Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for components that schedule delayed work
// (presence debounce, reconnect backoff) so tests never sleep.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
