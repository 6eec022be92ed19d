package bus

import "sync"

// Observer receives bus activity notifications. Implementations must
// be fast and must not fire into the bus from the callback; they run
// inline on the firing or delivering goroutine.
type Observer interface {
	// MessageFired is invoked once per Fire call that passes
	// validation, before filtering.
	MessageFired(msg Message, candidates int)

	// MessageDelivered is invoked after a handler returned normally.
	MessageDelivered(msg Message, owner OwnerID)

	// HandlerFault is invoked when a handler panicked; delivery to
	// the rest of the batch continues.
	HandlerFault(msg Message, owner OwnerID, recovered any)

	// MessageDropped is invoked when a batch could not be enqueued on
	// its target context (full mailbox, stopped loop).
	MessageDropped(msg Message, reason string)
}

// observerList is a copy-on-read fan-out of Observer callbacks.
type observerList struct {
	mu        sync.RWMutex
	observers []Observer
}

func (ol *observerList) add(o Observer) func() {
	ol.mu.Lock()
	ol.observers = append(ol.observers, o)
	ol.mu.Unlock()

	return func() {
		ol.mu.Lock()
		defer ol.mu.Unlock()
		for i, existing := range ol.observers {
			if existing == o {
				ol.observers = append(ol.observers[:i], ol.observers[i+1:]...)
				return
			}
		}
	}
}

func (ol *observerList) snapshot() []Observer {
	ol.mu.RLock()
	defer ol.mu.RUnlock()
	if len(ol.observers) == 0 {
		return nil
	}
	out := make([]Observer, len(ol.observers))
	copy(out, ol.observers)
	return out
}

func (ol *observerList) fired(msg Message, candidates int) {
	for _, o := range ol.snapshot() {
		o.MessageFired(msg, candidates)
	}
}

func (ol *observerList) delivered(msg Message, owner OwnerID) {
	for _, o := range ol.snapshot() {
		o.MessageDelivered(msg, owner)
	}
}

func (ol *observerList) fault(msg Message, owner OwnerID, recovered any) {
	for _, o := range ol.snapshot() {
		o.HandlerFault(msg, owner, recovered)
	}
}

func (ol *observerList) dropped(msg Message, reason string) {
	for _, o := range ol.snapshot() {
		o.MessageDropped(msg, reason)
	}
}
