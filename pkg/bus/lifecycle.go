package bus

import "sync"

// OwnerID names the component a subscription belongs to. Owners are
// transient by default: their subscriptions deliver only between
// Activate and Deactivate. MarkPersistent opts an owner out of the
// activation contract entirely.
type OwnerID string

// ownerState tracks one owner's mode and its live subscriptions. The
// bus holds no reference to the component itself; owner lifetime is
// the container's business.
type ownerState struct {
	persistent bool
	mounted    bool
	subs       map[*subscription]struct{}
}

// lifecycle coordinates subscription activity. All mutation happens
// under one mutex; the critical sections only flip state atomics and
// never touch handlers.
type lifecycle struct {
	mu     sync.Mutex
	owners map[OwnerID]*ownerState
}

func newLifecycle() *lifecycle {
	return &lifecycle{owners: make(map[OwnerID]*ownerState)}
}

func (lc *lifecycle) owner(id OwnerID) *ownerState {
	o := lc.owners[id]
	if o == nil {
		o = &ownerState{subs: make(map[*subscription]struct{})}
		lc.owners[id] = o
	}
	return o
}

// attach registers sub with its owner and sets the initial activity:
// anonymous and persistent owners are active immediately, transient
// owners inherit their current mounted state.
func (lc *lifecycle) attach(sub *subscription) {
	if sub.owner == "" {
		sub.state.Store(stateActive)
		return
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	o := lc.owner(sub.owner)
	o.subs[sub] = struct{}{}
	if o.persistent || o.mounted {
		sub.state.Store(stateActive)
	} else {
		sub.state.Store(stateInactive)
	}
}

// detach forgets sub after deregistration. Empty owner entries are
// kept: the owner's mode must survive unsubscribe/resubscribe cycles.
func (lc *lifecycle) detach(sub *subscription) {
	if sub.owner == "" {
		return
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if o := lc.owners[sub.owner]; o != nil {
		delete(o.subs, sub)
	}
}

// activate flips all of owner's subscriptions to active. Containers
// call this exactly once per mount transition.
func (lc *lifecycle) activate(owner OwnerID) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	o := lc.owner(owner)
	o.mounted = true
	for sub := range o.subs {
		sub.state.CompareAndSwap(stateInactive, stateActive)
	}
}

// deactivate flips owner's subscriptions back to inactive without
// removing them, so a later activate resumes delivery with no
// re-subscribe. Persistent owners are unaffected.
func (lc *lifecycle) deactivate(owner OwnerID) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	o := lc.owner(owner)
	o.mounted = false
	if o.persistent {
		return
	}
	for sub := range o.subs {
		sub.state.CompareAndSwap(stateActive, stateInactive)
	}
}

// markPersistent switches owner to controller semantics: current and
// future subscriptions are active until explicitly unsubscribed,
// independent of any activate/deactivate signal.
func (lc *lifecycle) markPersistent(owner OwnerID) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	o := lc.owner(owner)
	o.persistent = true
	for sub := range o.subs {
		sub.state.CompareAndSwap(stateInactive, stateActive)
	}
}
