// Package runtime handles connection tracking, presence, command routing
// and event fanout. It orchestrates the system without containing
// business logic or domain rules.
package runtime

import (
	"sync"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain"
)

type session struct {
	user          domain.UserID
	sink          contract.EventSink
	conversations map[domain.ConversationID]struct{}
}

// Registry tracks which identities currently hold live connections.
// One identity may own several concurrent connections (multi-device);
// each connection is registered under its own id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	byUser   map[domain.UserID]map[string]struct{}
	// members counts, per conversation and user, how many of that
	// user's connections joined it. The count keeps membership stable
	// while one of several devices leaves.
	members map[domain.ConversationID]map[domain.UserID]int
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		byUser:   make(map[domain.UserID]map[string]struct{}),
		members:  make(map[domain.ConversationID]map[domain.UserID]int),
	}
}

// Register binds an authenticated connection to its identity.
// Duplicate sessions are allowed by design, there is no upper bound
// on connections per identity.
func (r *Registry) Register(user domain.UserID, connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = &session{
		user:          user,
		sink:          sink,
		conversations: make(map[domain.ConversationID]struct{}),
	}
	if _, ok := r.byUser[user]; !ok {
		r.byUser[user] = make(map[string]struct{})
	}
	r.byUser[user][connID] = struct{}{}
}

// Deregister removes the connection and its conversation subscriptions.
// Idempotent: deregistering an unknown connection is a no-op.
func (r *Registry) Deregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	delete(r.sessions, connID)

	if conns, ok := r.byUser[sess.user]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byUser, sess.user)
		}
	}

	for convID := range sess.conversations {
		r.dropMember(convID, sess.user)
	}
}

// Subscribe adds the connection's identity to a conversation audience.
func (r *Registry) Subscribe(connID string, conversationID domain.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	if _, already := sess.conversations[conversationID]; already {
		return
	}
	sess.conversations[conversationID] = struct{}{}

	if _, ok := r.members[conversationID]; !ok {
		r.members[conversationID] = make(map[domain.UserID]int)
	}
	r.members[conversationID][sess.user]++
}

func (r *Registry) Unsubscribe(connID string, conversationID domain.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	if _, subscribed := sess.conversations[conversationID]; !subscribed {
		return
	}
	delete(sess.conversations, conversationID)
	r.dropMember(conversationID, sess.user)
}

// dropMember decrements a membership refcount and prunes empty entries
// so the maps do not leak over time. Caller holds the lock.
func (r *Registry) dropMember(conversationID domain.ConversationID, user domain.UserID) {
	users, ok := r.members[conversationID]
	if !ok {
		return
	}
	if users[user]--; users[user] <= 0 {
		delete(users, user)
	}
	if len(users) == 0 {
		delete(r.members, conversationID)
	}
}

// SinksFor resolves every live connection of every member of the
// conversation. A member with several devices appears once per device:
// delivery is at-least-once per connection.
func (r *Registry) SinksFor(conversationID domain.ConversationID) []contract.Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users, ok := r.members[conversationID]
	if !ok {
		return nil
	}
	var recipients []contract.Recipient
	for user := range users {
		for connID := range r.byUser[user] {
			if sess, live := r.sessions[connID]; live {
				recipients = append(recipients, contract.Recipient{User: user, Sink: sess.sink})
			}
		}
	}
	return recipients
}

// SinksForUser resolves all devices of one identity.
func (r *Registry) SinksForUser(user domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connID := range r.byUser[user] {
		if sess, live := r.sessions[connID]; live {
			sinks = append(sinks, sess.sink)
		}
	}
	return sinks
}

func (r *Registry) Connections(user domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user])
}
