// Package bus implements an in-process, scope-isolated, affinity-
// aware event bus. Publishers and subscribers never hold references
// to each other: messages are matched by kind, filtered by scope and
// lifecycle activity, and delivered on the execution context the
// message's affinity selects.
//
// One Bus instance is constructed explicitly at process start and
// passed to every component that needs it; there is no package-level
// singleton.
package bus

import (
	"context"
	"sync/atomic"

	"github.com/pulsekit/pulse/pkg/concurrency"
	"github.com/pulsekit/pulse/pkg/failfast"
	"github.com/pulsekit/pulse/pkg/reactor"
)

// Config sizes the bus's execution contexts.
type Config struct {
	// UIQueueSize bounds the UI loop's pending-function queue.
	UIQueueSize int `yaml:"ui_queue_size" json:"ui_queue_size"`

	// Workers is the number of worker-pool goroutines.
	Workers int `yaml:"workers" json:"workers"`

	// WorkerQueueSize bounds the worker pool's task queue.
	WorkerQueueSize int `yaml:"worker_queue_size" json:"worker_queue_size"`
}

// DefaultConfig returns the default sizing.
func DefaultConfig() Config {
	return Config{
		UIQueueSize:     1024,
		Workers:         8,
		WorkerQueueSize: 1024,
	}
}

// Bus is the fire/subscribe/unsubscribe facade composing the
// registry, the scope store, the lifecycle coordinator, and the
// dispatcher.
type Bus struct {
	registry   *registry
	scopes     *scopeStore
	lifecycle  *lifecycle
	dispatcher *dispatcher
	observers  *observerList
	logger     Logger
	loop       *reactor.Loop
	pool       concurrency.WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	closed     atomic.Bool
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithLogger replaces the default logger.
func WithLogger(l Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithObserver registers an observer for the bus's whole lifetime.
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observers.add(o) }
}

// New creates and starts a Bus. The UI loop and the worker pool run
// until Close or until ctx is cancelled.
func New(ctx context.Context, cfg Config, opts ...Option) *Bus {
	if cfg.UIQueueSize < 1 {
		cfg.UIQueueSize = DefaultConfig().UIQueueSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.WorkerQueueSize < 1 {
		cfg.WorkerQueueSize = DefaultConfig().WorkerQueueSize
	}

	ctx, cancel := context.WithCancel(ctx)
	b := &Bus{
		registry:  newRegistry(),
		scopes:    newScopeStore(),
		lifecycle: newLifecycle(),
		observers: &observerList{},
		logger:    NewDefaultLogger(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.loop = reactor.NewLoop("ui", cfg.UIQueueSize, b.logger)
	b.pool = concurrency.NewWorkerPool(ctx, concurrency.PoolConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.WorkerQueueSize,
	})
	b.dispatcher = newDispatcher(b.loop, b.pool, b.logger, b.observers)

	b.loop.Start(ctx)
	failfast.Err(b.pool.Start())
	return b
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscription)

// ForOwner binds the subscription to a component identity. Owners are
// transient by default; see Activate, Deactivate, MarkPersistent.
func ForOwner(owner OwnerID) SubscribeOption {
	return func(s *subscription) { s.owner = owner }
}

// InScope restricts the subscription to messages fired into scope s
// (scope-less broadcasts still match).
func InScope(scope ScopeID) SubscribeOption {
	return func(s *subscription) { s.scope = scope }
}

// Subscribe registers handler for messages of the given kind. The
// returned handle is the only way to unsubscribe. Subscriptions with
// no owner are active immediately and stay so until Unsubscribe.
func (b *Bus) Subscribe(kind Kind, handler Handler, opts ...SubscribeOption) (Handle, error) {
	failfast.NotNil(handler, "handler")
	if kind == "" {
		return Handle{}, ErrEmptyKind
	}
	if b.closed.Load() {
		return Handle{}, ErrBusClosed
	}

	sub := &subscription{kind: kind, handler: handler}
	for _, opt := range opts {
		opt(sub)
	}

	b.lifecycle.attach(sub)
	return b.registry.register(sub), nil
}

// Unsubscribe removes the subscription behind h. Idempotent: a second
// call, or a zero handle, is a no-op. Removal stops future
// deliveries; a handler already executing finishes.
func (b *Bus) Unsubscribe(h Handle) {
	if sub := b.registry.deregister(h); sub != nil {
		b.lifecycle.detach(sub)
	}
}

// Fire dispatches msg to every matching subscriber. The error only
// reports misuse (empty kind, closed bus); handler faults never reach
// the firing caller. Fire does not block: when the target context is
// another thread's, the batch is enqueued and Fire returns.
func (b *Bus) Fire(msg Message) error {
	if msg.Kind() == "" {
		return ErrEmptyKind
	}
	if b.closed.Load() {
		return ErrBusClosed
	}

	batch := b.candidates(msg)
	b.observers.fired(msg, len(batch))
	if len(batch) == 0 {
		return nil
	}
	b.dispatcher.dispatch(b.ctx, msg, batch)
	return nil
}

// candidates snapshots the registry and applies the scope and
// activity filters, preserving registration order. Filtering happens
// at fire time; the surviving batch is fixed from here on.
func (b *Bus) candidates(msg Message) []*subscription {
	snap := b.registry.snapshot(msg.Kind())
	if len(snap) == 0 {
		return nil
	}
	// A concrete target scope that is dead (dropped, or never created)
	// matches zero scoped subscriptions. Global subscribers are
	// unaffected. This covers subscriptions made with a scope after its
	// teardown: DropScope removes the scope's subscriptions, liveness
	// here keeps late ones from resurrecting it.
	deadScope := !msg.Scope().IsZero() && !b.scopes.alive(msg.Scope())
	batch := make([]*subscription, 0, len(snap))
	for _, sub := range snap {
		if !visible(sub.scope, msg.Scope()) {
			continue
		}
		if deadScope && !sub.scope.IsZero() {
			continue
		}
		if !sub.active() {
			continue
		}
		batch = append(batch, sub)
	}
	return batch
}

// NewScope mints a fresh isolation scope. Factories building an
// isolated component graph call this once before constructing
// members, and DropScope when the graph is discarded.
func (b *Bus) NewScope() ScopeID {
	return b.scopes.create()
}

// DropScope tears down s: the scope stops matching and every
// subscription created in it is deregistered. Dropping an unknown or
// already dropped scope is a no-op; firing into a dropped scope
// simply reaches global subscribers only.
func (b *Bus) DropScope(s ScopeID) {
	if s.IsZero() {
		return
	}
	b.scopes.drop(s)
	for _, h := range b.registry.byScope(s) {
		b.Unsubscribe(h)
	}
}

// ScopeAlive reports whether s has been created and not yet dropped.
func (b *Bus) ScopeAlive(s ScopeID) bool { return b.scopes.alive(s) }

// Activate flips owner's subscriptions to active. Containers of
// transient components must call Activate/Deactivate exactly once per
// transition; missing a call leaves subscriptions permanently
// inactive or permanently active.
func (b *Bus) Activate(owner OwnerID) { b.lifecycle.activate(owner) }

// Deactivate flips owner's subscriptions to inactive without removing
// them; a later Activate resumes delivery with no re-subscribe.
func (b *Bus) Deactivate(owner OwnerID) { b.lifecycle.deactivate(owner) }

// MarkPersistent gives owner controller semantics: active from
// Subscribe until Unsubscribe, independent of Activate/Deactivate.
func (b *Bus) MarkPersistent(owner OwnerID) { b.lifecycle.markPersistent(owner) }

// AddObserver registers o and returns its removal function.
func (b *Bus) AddObserver(o Observer) func() {
	failfast.NotNil(o, "observer")
	return b.observers.add(o)
}

// Close shuts the bus down: no further fires or subscriptions are
// accepted, the UI loop drains and stops, and the worker pool stops
// within ctx's deadline.
func (b *Bus) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.loop.Stop()
	err := b.pool.Stop(ctx)
	b.cancel()
	return err
}
