// Package reactor provides a single-goroutine event loop. Everything
// submitted via Execute runs serially on one goroutine, in submission
// order. The bus uses one Loop as its UI execution context.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pulsekit/pulse/pkg/concurrency"
)

// Logger is the minimal logging surface the loop needs. Satisfied by
// the bus package's Logger.
type Logger interface {
	Errorf(format string, args ...any)
}

// Loop is a serial execution context backed by a bounded mailbox of
// functions.
type Loop struct {
	name    string
	mu      sync.RWMutex // excludes Execute sends against the Stop close
	mailbox chan func()
	logger  Logger
	running atomic.Bool
	gid     atomic.Int64
	done    chan struct{}
}

// NewLoop creates a loop whose mailbox holds up to size pending
// functions. The loop is inert until Start.
func NewLoop(name string, size int, logger Logger) *Loop {
	if size < 1 {
		size = 256
	}
	l := &Loop{
		name:    name,
		mailbox: make(chan func(), size),
		logger:  logger,
		done:    make(chan struct{}),
	}
	l.gid.Store(-1)
	return l
}

// Name returns the loop's name.
func (l *Loop) Name() string { return l.name }

// Start launches the loop goroutine. The loop runs until ctx is
// cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	go l.run(ctx)
}

// Stop shuts the loop down after draining functions already queued.
// Blocks until the loop goroutine has exited.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running.CompareAndSwap(true, false) {
		l.mu.Unlock()
		return
	}
	close(l.mailbox)
	l.mu.Unlock()
	<-l.done
}

// Execute submits fn to run on the loop goroutine. It never blocks:
// a full mailbox yields ErrBackpressure.
func (l *Loop) Execute(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.running.Load() {
		return ErrNotRunning
	}
	select {
	case l.mailbox <- fn:
		return nil
	default:
		return ErrBackpressure
	}
}

// IsCurrent reports whether the calling goroutine is the loop
// goroutine. Used to run same-context work inline instead of
// re-queuing it.
func (l *Loop) IsCurrent() bool {
	return l.running.Load() && l.gid.Load() == concurrency.GID()
}

// Pending returns the number of queued, unstarted functions.
func (l *Loop) Pending() int { return len(l.mailbox) }

func (l *Loop) run(ctx context.Context) {
	l.gid.Store(concurrency.GID())
	defer func() {
		l.gid.Store(-1)
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			l.running.Store(false)
			return
		case fn, ok := <-l.mailbox:
			if !ok {
				return
			}
			l.safeExecute(fn)
		}
	}
}

// safeExecute isolates panics so one faulting function cannot take
// the loop down.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if l.logger != nil {
				l.logger.Errorf("reactor %s: panic in queued function (isolated): %v", l.name, r)
			}
		}
	}()
	fn()
}
