package bus

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler is a subscriber callback. It runs on the execution context
// chosen by the matched message's affinity.
type Handler func(msg Message)

// Handle identifies a subscription for Unsubscribe. The zero Handle
// is invalid and unsubscribing it is a no-op.
type Handle struct {
	id   uuid.UUID
	kind Kind
}

// Kind returns the kind the handle was subscribed to.
func (h Handle) Kind() Kind { return h.kind }

func (h Handle) String() string { return string(h.kind) + "/" + h.id.String() }

// Subscription states. Removed is terminal.
const (
	stateInactive int32 = iota
	stateActive
	stateRemoved
)

// subscription ties a kind, an owner, an optional scope, and a
// handler. Only the state field mutates after registration: the
// lifecycle coordinator flips Inactive/Active, deregistration sets
// Removed.
type subscription struct {
	id      uuid.UUID
	kind    Kind
	owner   OwnerID
	scope   ScopeID
	handler Handler
	seq     uint64
	state   atomic.Int32
}

func (s *subscription) active() bool { return s.state.Load() == stateActive }

func (s *subscription) removed() bool { return s.state.Load() == stateRemoved }

func (s *subscription) handle() Handle { return Handle{id: s.id, kind: s.kind} }

// registry maps kinds to ordered subscription lists. The outer
// RWMutex guards the kind table and the id index; each kind node has
// its own mutex, so traffic on different kinds only shares the brief
// read lock on the table. No lock is ever held across handler
// execution: lookups hand out snapshots.
type registry struct {
	mu    sync.RWMutex
	kinds map[Kind]*kindNode
	byID  map[uuid.UUID]*subscription
	seq   atomic.Uint64
}

type kindNode struct {
	mu   sync.Mutex
	subs []*subscription
}

func newRegistry() *registry {
	return &registry{
		kinds: make(map[Kind]*kindNode),
		byID:  make(map[uuid.UUID]*subscription),
	}
}

func (r *registry) node(kind Kind, create bool) *kindNode {
	r.mu.RLock()
	n := r.kinds[kind]
	r.mu.RUnlock()
	if n != nil || !create {
		return n
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if n = r.kinds[kind]; n == nil {
		n = &kindNode{}
		r.kinds[kind] = n
	}
	return n
}

// register adds sub and returns its handle. Registration order is
// recorded in a monotonic sequence number so lookups stay
// first-registered, first-notified.
func (r *registry) register(sub *subscription) Handle {
	sub.id = uuid.New()
	sub.seq = r.seq.Add(1)

	r.mu.Lock()
	r.byID[sub.id] = sub
	r.mu.Unlock()

	n := r.node(sub.kind, true)
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	return sub.handle()
}

// deregister removes the subscription behind h. Idempotent: a second
// call for the same handle, or a handle that never existed, is a
// no-op. Returns the removed subscription, nil when nothing changed.
func (r *registry) deregister(h Handle) *subscription {
	r.mu.Lock()
	sub, ok := r.byID[h.id]
	if ok {
		delete(r.byID, h.id)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	sub.state.Store(stateRemoved)

	if n := r.node(sub.kind, false); n != nil {
		n.mu.Lock()
		for i, s := range n.subs {
			if s == sub {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				break
			}
		}
		n.mu.Unlock()
	}
	return sub
}

// snapshot copies kind's subscription list in registration order. The
// copy is what gets dispatched: concurrent deregistration cannot
// shrink a batch mid-iteration.
func (r *registry) snapshot(kind Kind) []*subscription {
	n := r.node(kind, false)
	if n == nil {
		return nil
	}
	n.mu.Lock()
	out := make([]*subscription, len(n.subs))
	copy(out, n.subs)
	n.mu.Unlock()
	return out
}

// byScope returns the handles of every subscription carrying scope s,
// ordered by registration. Used for scope teardown.
func (r *registry) byScope(s ScopeID) []Handle {
	r.mu.RLock()
	var matched []*subscription
	for _, sub := range r.byID {
		if sub.scope == s {
			matched = append(matched, sub)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	handles := make([]Handle, len(matched))
	for i, sub := range matched {
		handles[i] = sub.handle()
	}
	return handles
}

// counts reports per-kind totals for Stats.
func (r *registry) counts() map[Kind]KindStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Kind]KindStats, len(r.kinds))
	for kind, n := range r.kinds {
		n.mu.Lock()
		ks := KindStats{Subscriptions: len(n.subs)}
		for _, sub := range n.subs {
			if sub.active() {
				ks.Active++
			}
		}
		n.mu.Unlock()
		if ks.Subscriptions > 0 {
			out[kind] = ks
		}
	}
	return out
}
