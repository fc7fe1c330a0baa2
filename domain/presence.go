// This file defines the per-identity presence machine.
// It is pure: debounce timers live in the runtime tracker,
// which drives this machine and announces its transitions.
package domain

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// Presence derives a status from the count of live connections
// owned by one identity, plus a client-signaled idle flag.
// The machine is long-lived and cycles, there is no terminal state.
type Presence struct {
	connections int
	idle        bool
}

// Status is offline with zero connections, away when idle, online otherwise.
func (p Presence) Status() PresenceStatus {
	switch {
	case p.connections == 0:
		return StatusOffline
	case p.idle:
		return StatusAway
	default:
		return StatusOnline
	}
}

func (p Presence) Connections() int { return p.connections }

// ConnectionOpened registers one more live connection.
// A fresh first connection clears any stale idle flag.
func (p *Presence) ConnectionOpened() {
	if p.connections == 0 {
		p.idle = false
	}
	p.connections++
}

// ConnectionClosed reports true when the last connection is gone,
// which is the signal to start the offline debounce.
func (p *Presence) ConnectionClosed() bool {
	if p.connections > 0 {
		p.connections--
	}
	return p.connections == 0
}

// Idle is the explicit idle signal from a live connection.
// Ignored while offline.
func (p *Presence) Idle() {
	if p.connections > 0 {
		p.idle = true
	}
}

// Active is the activity signal ending an away period.
func (p *Presence) Active() {
	p.idle = false
}
