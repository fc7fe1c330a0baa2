package runtime

import (
	"log/slog"
	"sync"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"
)

// ConversationLookup resolves the audience of a presence change:
// everyone sharing at least one conversation with the affected identity.
type ConversationLookup interface {
	ConversationsOf(user domain.UserID) []domain.ConversationID
}

type presenceEntry struct {
	machine   domain.Presence
	announced domain.PresenceStatus
	debounce  contract.Timer
}

// PresenceTracker derives online/away/offline per identity from
// connection transitions and idle signals, and broadcasts changes.
// Going offline is debounced: the last connection must stay gone for
// the whole window, so a quick reconnect never flaps the status.
type PresenceTracker struct {
	mu      sync.Mutex
	log     *slog.Logger
	clock   contract.Clock
	window  time.Duration
	lookup  ConversationLookup
	events  chan<- event.DomainEvent
	entries map[domain.UserID]*presenceEntry
}

func NewPresenceTracker(log *slog.Logger, clock contract.Clock, window time.Duration,
	lookup ConversationLookup, events chan<- event.DomainEvent) *PresenceTracker {
	return &PresenceTracker{
		log:     log,
		clock:   clock,
		window:  window,
		lookup:  lookup,
		events:  events,
		entries: make(map[domain.UserID]*presenceEntry),
	}
}

func (t *PresenceTracker) entry(user domain.UserID) *presenceEntry {
	e, ok := t.entries[user]
	if !ok {
		e = &presenceEntry{announced: domain.StatusOffline}
		t.entries[user] = e
	}
	return e
}

// ConnectionOpened cancels any pending offline debounce: a reconnect
// inside the window produces no offline event at all.
func (t *PresenceTracker) ConnectionOpened(user domain.UserID) {
	t.mu.Lock()
	e := t.entry(user)
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	e.machine.ConnectionOpened()
	pending := t.collect(user, e)
	t.mu.Unlock()

	t.publish(pending)
}

// ConnectionClosed arms the debounce when the last connection is gone.
// The offline announcement only fires if the window elapses with no
// new connection for this identity.
func (t *PresenceTracker) ConnectionClosed(user domain.UserID) {
	t.mu.Lock()
	e := t.entry(user)
	lastGone := e.machine.ConnectionClosed()
	if lastGone && e.debounce == nil {
		e.debounce = t.clock.AfterFunc(t.window, func() {
			t.debounceFired(user)
		})
	}
	t.mu.Unlock()
}

func (t *PresenceTracker) debounceFired(user domain.UserID) {
	t.mu.Lock()
	e := t.entry(user)
	e.debounce = nil
	var pending []event.DomainEvent
	if e.machine.Connections() == 0 {
		pending = t.collect(user, e)
	}
	t.mu.Unlock()

	t.publish(pending)
}

func (t *PresenceTracker) Idle(user domain.UserID) {
	t.mu.Lock()
	e := t.entry(user)
	e.machine.Idle()
	pending := t.collect(user, e)
	t.mu.Unlock()

	t.publish(pending)
}

func (t *PresenceTracker) Active(user domain.UserID) {
	t.mu.Lock()
	e := t.entry(user)
	e.machine.Active()
	pending := t.collect(user, e)
	t.mu.Unlock()

	t.publish(pending)
}

// Status reports the announced status, which lags the raw machine by
// the debounce window on the way down.
func (t *PresenceTracker) Status(user domain.UserID) domain.PresenceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[user]
	if !ok {
		return domain.StatusOffline
	}
	return e.announced
}

// collect builds one PresenceChanged per shared conversation when the
// status actually changed. Caller holds the lock; events are sent
// after unlocking so a saturated fanout cannot deadlock the tracker.
func (t *PresenceTracker) collect(user domain.UserID, e *presenceEntry) []event.DomainEvent {
	status := e.machine.Status()
	if status == e.announced {
		return nil
	}
	e.announced = status

	at := t.clock.Now()
	var pending []event.DomainEvent
	for _, convID := range t.lookup.ConversationsOf(user) {
		pending = append(pending, event.PresenceChanged{
			ConversationID: convID,
			UserID:         user,
			Status:         status,
			At:             at,
		})
	}
	t.log.Debug("Presence changed", "user", user, "status", status)
	return pending
}

func (t *PresenceTracker) publish(pending []event.DomainEvent) {
	for _, evt := range pending {
		t.events <- evt
	}
}
