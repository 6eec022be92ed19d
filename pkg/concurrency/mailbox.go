// Package concurrency provides the execution primitives the bus is
// built on: typed mailboxes, tasks, and a bounded worker pool.
// Channel operations and goroutine management stay behind these
// abstractions.
package concurrency

import (
	"context"
	"errors"
)

var (
	// ErrMailboxClosed is returned by Send/Receive on a closed mailbox.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned by Send when the mailbox is at
	// capacity (backpressure, never blocking).
	ErrMailboxFull = errors.New("mailbox is full")
)

// Mailbox is a bounded, non-blocking message queue.
type Mailbox[T any] interface {
	// Send enqueues msg. Returns ErrMailboxFull when at capacity and
	// ErrMailboxClosed after Close; it never blocks.
	Send(msg T) error

	// Receive dequeues the next message, blocking until one is
	// available, the mailbox closes, or ctx is done.
	Receive(ctx context.Context) (T, error)

	// TryReceive dequeues without blocking. The bool reports whether
	// a message was available.
	TryReceive() (T, bool, error)

	// Close closes the mailbox. Idempotent.
	Close()

	// Capacity returns the maximum queue length.
	Capacity() int

	// Size returns the current queue length.
	Size() int

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}
