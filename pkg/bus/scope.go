package bus

import (
	"sync"

	"github.com/google/uuid"
)

// ScopeID identifies an isolation boundary: a set of components
// created together (one modal flow, one wizard). The zero value is
// NoScope, meaning global visibility.
type ScopeID struct {
	id uuid.UUID
}

// NoScope is the absent scope: messages fired with it broadcast to
// everyone, subscriptions carrying it see every scope.
var NoScope = ScopeID{}

// IsZero reports whether s is NoScope.
func (s ScopeID) IsZero() bool { return s.id == uuid.Nil }

func (s ScopeID) String() string {
	if s.IsZero() {
		return "global"
	}
	return s.id.String()
}

// scopeStore tracks live scopes. Visibility itself is a pure
// function; the live set exists so the bus can tear down a scope's
// subscriptions and report scope counts.
type scopeStore struct {
	mu   sync.RWMutex
	live map[ScopeID]struct{}
}

func newScopeStore() *scopeStore {
	return &scopeStore{live: make(map[ScopeID]struct{})}
}

// create mints a fresh live scope.
func (ss *scopeStore) create() ScopeID {
	s := ScopeID{id: uuid.New()}
	ss.mu.Lock()
	ss.live[s] = struct{}{}
	ss.mu.Unlock()
	return s
}

// drop removes s from the live set. Dropping an unknown or already
// dropped scope is a no-op.
func (ss *scopeStore) drop(s ScopeID) {
	if s.IsZero() {
		return
	}
	ss.mu.Lock()
	delete(ss.live, s)
	ss.mu.Unlock()
}

func (ss *scopeStore) alive(s ScopeID) bool {
	if s.IsZero() {
		return false
	}
	ss.mu.RLock()
	_, ok := ss.live[s]
	ss.mu.RUnlock()
	return ok
}

func (ss *scopeStore) count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.live)
}

// visible implements the scope matching rule: a scope-less message
// broadcasts to everyone, a scope-less subscription sees every scope,
// and a concrete scope only ever matches itself.
func visible(subScope, msgScope ScopeID) bool {
	if msgScope.IsZero() || subScope.IsZero() {
		return true
	}
	return subScope == msgScope
}
