package widget

import (
	"context"
	"testing"
	"time"

	"github.com/pulsekit/pulse/pkg/bus"
)

func newTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.New(context.Background(), bus.DefaultConfig())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = b.Close(ctx)
	})
	return b
}

func waitMsg(t *testing.T, ch <-chan bus.Message) bus.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return bus.Message{}
	}
}

// settle fires a probe to a dedicated persistent subscriber and waits
// for it, flushing the UI queue past everything fired before it.
func settle(t *testing.T, b *bus.Bus) {
	t.Helper()
	ch := make(chan struct{}, 1)
	h, err := b.Subscribe("widget.test.settle", func(bus.Message) { ch <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}
	defer b.Unsubscribe(h)
	if err := b.Fire(bus.Signal("widget.test.settle")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("settle probe never delivered")
	}
}

func TestGraph_Isolation(t *testing.T) {
	b := newTestBus(t)
	g1 := NewGraph(b)
	g2 := NewGraph(b)
	defer g1.Discard()
	defer g2.Discard()

	got1 := make(chan bus.Message, 4)
	got2 := make(chan bus.Message, 4)
	New(g1, "chart", Persistent(), On("data.updated", func(m bus.Message) { got1 <- m }))
	New(g2, "chart", Persistent(), On("data.updated", func(m bus.Message) { got2 <- m }))

	if err := g1.Fire("data.updated", 42); err != nil {
		t.Fatal(err)
	}
	m := waitMsg(t, got1)
	if m.Payload().(int) != 42 {
		t.Errorf("payload = %v", m.Payload())
	}
	settle(t, b)
	select {
	case <-got2:
		t.Error("graph two received graph one's scoped message")
	default:
	}
}

func TestComponent_MountContract(t *testing.T) {
	b := newTestBus(t)
	g := NewGraph(b)
	defer g.Discard()

	got := make(chan bus.Message, 4)
	c := New(g, "panel", On("tick", func(m bus.Message) { got <- m }))

	// Unmounted: nothing delivered.
	if err := g.Fire("tick", nil); err != nil {
		t.Fatal(err)
	}
	settle(t, b)
	select {
	case <-got:
		t.Fatal("unmounted component received a message")
	default:
	}

	c.Attach()
	if err := g.Fire("tick", nil); err != nil {
		t.Fatal(err)
	}
	waitMsg(t, got)

	c.Detach()
	if err := g.Fire("tick", nil); err != nil {
		t.Fatal(err)
	}
	settle(t, b)
	select {
	case <-got:
		t.Error("detached component received a message")
	default:
	}
}

func TestComponent_PersistentIgnoresDetach(t *testing.T) {
	b := newTestBus(t)
	g := NewGraph(b)
	defer g.Discard()

	got := make(chan bus.Message, 4)
	c := New(g, "controller", Persistent(), On("tick", func(m bus.Message) { got <- m }))

	// Live from construction, no Attach needed.
	if err := g.Fire("tick", nil); err != nil {
		t.Fatal(err)
	}
	waitMsg(t, got)

	c.Detach()
	if err := g.Fire("tick", nil); err != nil {
		t.Fatal(err)
	}
	waitMsg(t, got)
}

func TestGraph_DiscardRemovesSubscriptions(t *testing.T) {
	b := newTestBus(t)
	g := NewGraph(b)

	got := make(chan bus.Message, 4)
	New(g, "chart", Persistent(), On("tick", func(m bus.Message) { got <- m }))

	scope := g.Scope()
	g.Discard()
	if b.ScopeAlive(scope) {
		t.Error("scope should be dead after Discard")
	}

	// A global fire would still match a surviving subscription.
	if err := b.Fire(bus.Signal("tick")); err != nil {
		t.Fatal(err)
	}
	settle(t, b)
	select {
	case <-got:
		t.Error("component received a message after Discard")
	default:
	}

	// Idempotent.
	g.Discard()
}

func TestNew_DuplicateNamePanics(t *testing.T) {
	b := newTestBus(t)
	g := NewGraph(b)
	defer g.Discard()

	New(g, "chart")
	defer func() {
		if recover() == nil {
			t.Error("duplicate component name should panic")
		}
	}()
	New(g, "chart")
}

func TestNew_OnDiscardedGraphPanics(t *testing.T) {
	b := newTestBus(t)
	g := NewGraph(b)
	g.Discard()
	defer func() {
		if recover() == nil {
			t.Error("New on discarded graph should panic")
		}
	}()
	New(g, "late")
}
