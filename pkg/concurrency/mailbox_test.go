package concurrency

import (
	"context"
	"testing"
	"time"
)

func TestMailbox_SendReceive(t *testing.T) {
	mb := NewBoundedMailbox[string](2)

	if err := mb.Send("a"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := mb.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}

	msg, err := mb.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg != "a" {
		t.Errorf("Receive() = %q, want a", msg)
	}
}

func TestMailbox_Backpressure(t *testing.T) {
	mb := NewBoundedMailbox[int](1)

	if err := mb.Send(1); err != nil {
		t.Fatal(err)
	}
	if err := mb.Send(2); err != ErrMailboxFull {
		t.Errorf("Send on full mailbox: %v, want ErrMailboxFull", err)
	}
}

func TestMailbox_TryReceive(t *testing.T) {
	mb := NewBoundedMailbox[int](1)

	if _, ok, err := mb.TryReceive(); ok || err != nil {
		t.Errorf("TryReceive on empty = (%v, %v)", ok, err)
	}

	mb.Send(7)
	msg, ok, err := mb.TryReceive()
	if !ok || err != nil || msg != 7 {
		t.Errorf("TryReceive = (%v, %v, %v), want (7, true, nil)", msg, ok, err)
	}
}

func TestMailbox_Close(t *testing.T) {
	mb := NewBoundedMailbox[int](4)
	mb.Send(1)
	mb.Close()
	mb.Close() // idempotent

	if !mb.IsClosed() {
		t.Error("IsClosed() false after Close")
	}
	if err := mb.Send(2); err != ErrMailboxClosed {
		t.Errorf("Send after close: %v, want ErrMailboxClosed", err)
	}

	// Buffered message is still drainable.
	msg, ok, err := mb.TryReceive()
	if !ok || err != nil || msg != 1 {
		t.Errorf("drain after close = (%v, %v, %v)", msg, ok, err)
	}
	if _, _, err := mb.TryReceive(); err != ErrMailboxClosed {
		t.Errorf("TryReceive on drained closed mailbox: %v, want ErrMailboxClosed", err)
	}
}

func TestMailbox_ReceiveContextCancel(t *testing.T) {
	mb := NewBoundedMailbox[int](1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := mb.Receive(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Receive with expired ctx: %v, want DeadlineExceeded", err)
	}
}

func TestMailbox_DefaultCapacity(t *testing.T) {
	mb := NewBoundedMailbox[int](0)
	if mb.Capacity() != 100 {
		t.Errorf("Capacity() = %d, want 100", mb.Capacity())
	}
}
