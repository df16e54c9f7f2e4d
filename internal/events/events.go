// Package events carries record changes from the ledger to whoever needs to
// invalidate or mirror state (audit log, WebSocket clients).
package events

import (
	"slices"
	"sync"
)

// Collection names a record kind.
type Collection string

const (
	Banks        Collection = "banks"
	Categories   Collection = "categories"
	Transactions Collection = "transactions"
	Tokens       Collection = "tokens"
	Planned      Collection = "planned_transactions"
)

// Action is what happened to the record.
type Action string

const (
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// Event describes one committed change. Record holds the record after the
// change, or the last known value for deletes.
type Event struct {
	User       string     `json:"user"`
	Collection Collection `json:"collection"`
	Action     Action     `json:"action"`
	ID         string     `json:"id"`
	Record     any        `json:"record,omitempty"`
}

// Publisher accepts events.
type Publisher interface {
	Publish(e Event)
}

// Handler receives events.
type Handler func(e Event)

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Bus fans events out to subscribers. Handlers run synchronously on the
// publishing goroutine, in subscription order, so a subscriber sees events
// in the order they were committed.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	user string // empty = every user
	fn   Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers fn for events of user (or all users when user is
// empty) and returns a function that removes the subscription.
func (b *Bus) Subscribe(user string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{user: user, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish implements Publisher.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id, s := range b.subs {
		if s.user == "" || s.user == e.User {
			ids = append(ids, id)
		}
	}
	handlers := make([]Handler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[id].fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}
