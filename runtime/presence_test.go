package runtime

import (
	"log/slog"
	"testing"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
	"bluecollar-chat/domain/event"

	"github.com/stretchr/testify/require"
)

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(time.Duration) <-chan time.Time { return nil }

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) contract.Timer {
	timer := &fakeTimer{f: f}
	c.timers = append(c.timers, timer)
	return timer
}

// elapse fires every pending timer that was not stopped.
func (c *fakeClock) elapse() {
	pending := c.timers
	c.timers = nil
	for _, timer := range pending {
		if !timer.stopped {
			timer.f()
		}
	}
}

type staticLookup struct{ convs []domain.ConversationID }

func (l staticLookup) ConversationsOf(domain.UserID) []domain.ConversationID { return l.convs }

func newTracker(t *testing.T) (*PresenceTracker, *fakeClock, chan event.DomainEvent) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	events := make(chan event.DomainEvent, 16)
	tracker := NewPresenceTracker(slog.Default(), clock, 7*time.Second,
		staticLookup{convs: []domain.ConversationID{conv}}, events)
	return tracker, clock, events
}

func drain(events chan event.DomainEvent) []event.PresenceChanged {
	var out []event.PresenceChanged
	for {
		select {
		case e := <-events:
			if pc, ok := e.(event.PresenceChanged); ok {
				out = append(out, pc)
			}
		default:
			return out
		}
	}
}

func TestPresenceTracker_OnlineOffline(t *testing.T) {
	t.Run("should announce online on first connection", func(t *testing.T) {
		req := require.New(t)
		tracker, _, events := newTracker(t)

		tracker.ConnectionOpened(alice)

		changes := drain(events)
		req.Len(changes, 1)
		req.Equal(domain.StatusOnline, changes[0].Status)
		req.Equal(alice, changes[0].UserID)
	})

	t.Run("should announce offline only after the window elapses", func(t *testing.T) {
		req := require.New(t)
		tracker, clock, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		tracker.ConnectionClosed(alice)
		drain(events)

		// Window not elapsed yet: still online from the outside.
		req.Equal(domain.StatusOnline, tracker.Status(alice))
		req.Empty(drain(events))

		clock.elapse()
		changes := drain(events)
		req.Len(changes, 1)
		req.Equal(domain.StatusOffline, changes[0].Status)
		req.Equal(domain.StatusOffline, tracker.Status(alice))
	})

	t.Run("fast reconnect inside the window produces no offline event", func(t *testing.T) {
		req := require.New(t)
		tracker, clock, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		tracker.ConnectionClosed(alice)
		tracker.ConnectionOpened(alice)
		drain(events)

		clock.elapse()
		req.Empty(drain(events))
		req.Equal(domain.StatusOnline, tracker.Status(alice))
	})

	t.Run("never offline while another device is connected", func(t *testing.T) {
		req := require.New(t)
		tracker, clock, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		tracker.ConnectionOpened(alice)
		tracker.ConnectionClosed(alice)
		drain(events)

		clock.elapse()
		req.Empty(drain(events))
		req.Equal(domain.StatusOnline, tracker.Status(alice))
	})

	t.Run("reconnect after the window announces online again", func(t *testing.T) {
		req := require.New(t)
		tracker, clock, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		tracker.ConnectionClosed(alice)
		clock.elapse()
		drain(events)

		tracker.ConnectionOpened(alice)
		changes := drain(events)
		req.Len(changes, 1)
		req.Equal(domain.StatusOnline, changes[0].Status)
	})
}

func TestPresenceTracker_IdleSignals(t *testing.T) {
	t.Run("idle then active flips away and back", func(t *testing.T) {
		req := require.New(t)
		tracker, _, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		drain(events)

		tracker.Idle(alice)
		changes := drain(events)
		req.Len(changes, 1)
		req.Equal(domain.StatusAway, changes[0].Status)

		tracker.Active(alice)
		changes = drain(events)
		req.Len(changes, 1)
		req.Equal(domain.StatusOnline, changes[0].Status)
	})

	t.Run("repeated idle signals announce once", func(t *testing.T) {
		req := require.New(t)
		tracker, _, events := newTracker(t)

		tracker.ConnectionOpened(alice)
		drain(events)

		tracker.Idle(alice)
		tracker.Idle(alice)
		req.Len(drain(events), 1)
	})

	t.Run("idle while offline is ignored", func(t *testing.T) {
		req := require.New(t)
		tracker, _, events := newTracker(t)

		tracker.Idle(alice)
		req.Empty(drain(events))
		req.Equal(domain.StatusOffline, tracker.Status(alice))
	})
}

func TestPresenceTracker_AudienceScope(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Now()}
	events := make(chan event.DomainEvent, 16)
	shared := []domain.ConversationID{"conv-1", "conv-2", "conv-3"}
	tracker := NewPresenceTracker(slog.Default(), clock, 7*time.Second, staticLookup{convs: shared}, events)

	tracker.ConnectionOpened(bob)

	changes := drain(events)
	req.Len(changes, len(shared))
	for i, change := range changes {
		req.Equal(shared[i], change.ConversationID)
		req.Equal(domain.StatusOnline, change.Status)
	}
}
