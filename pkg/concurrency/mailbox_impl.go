package concurrency

import (
	"context"
	"sync/atomic"
)

// boundedMailbox implements Mailbox on a buffered channel.
type boundedMailbox[T any] struct {
	ch       chan T
	closed   atomic.Bool
	capacity int
}

// NewBoundedMailbox creates a mailbox holding at most capacity
// messages. A capacity below one falls back to 100.
func NewBoundedMailbox[T any](capacity int) Mailbox[T] {
	if capacity < 1 {
		capacity = 100
	}
	return &boundedMailbox[T]{
		ch:       make(chan T, capacity),
		capacity: capacity,
	}
}

func (mb *boundedMailbox[T]) Send(msg T) error {
	if mb.closed.Load() {
		return ErrMailboxClosed
	}
	select {
	case mb.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (mb *boundedMailbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	if mb.closed.Load() && len(mb.ch) == 0 {
		return zero, ErrMailboxClosed
	}
	select {
	case msg, ok := <-mb.ch:
		if !ok {
			return zero, ErrMailboxClosed
		}
		return msg, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (mb *boundedMailbox[T]) TryReceive() (T, bool, error) {
	var zero T
	select {
	case msg, ok := <-mb.ch:
		if !ok {
			return zero, false, ErrMailboxClosed
		}
		return msg, true, nil
	default:
		if mb.closed.Load() {
			return zero, false, ErrMailboxClosed
		}
		return zero, false, nil
	}
}

func (mb *boundedMailbox[T]) Close() {
	if mb.closed.CompareAndSwap(false, true) {
		close(mb.ch)
	}
}

func (mb *boundedMailbox[T]) Capacity() int { return mb.capacity }

func (mb *boundedMailbox[T]) Size() int { return len(mb.ch) }

func (mb *boundedMailbox[T]) IsClosed() bool { return mb.closed.Load() }
