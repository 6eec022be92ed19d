package wizard

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

// recordNav subscribes a persistent global recorder for one navigation
// kind before the wizard starts, so the very first entry is captured.
func recordNav(t *testing.T, b *bus.Bus, kind bus.Kind) <-chan Nav {
	t.Helper()
	ch := make(chan Nav, 16)
	if _, err := b.Subscribe(kind, func(m bus.Message) {
		ch <- m.Payload().(Nav)
	}); err != nil {
		t.Fatal(err)
	}
	return ch
}

func waitNav(t *testing.T, ch <-chan Nav) Nav {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for navigation message")
		return Nav{}
	}
}

func TestStart_EntersFirstPage(t *testing.T) {
	b := newTestBus(t)
	entered := recordNav(t, b, KindPageEntered)

	var hooks []PageID
	w := New(b, "setup")
	w.Page("welcome").OnEnter(func(c PageContext) { hooks = append(hooks, c.Page) })
	w.Page("details")

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if page, idx, ok := w.Current(); !ok || page != "welcome" || idx != 0 {
		t.Errorf("Current() = %v %d %v", page, idx, ok)
	}
	if len(hooks) != 1 || hooks[0] != "welcome" {
		t.Errorf("onEnter hooks = %v", hooks)
	}

	nav := waitNav(t, entered)
	if nav.Flow != "setup" || nav.Page != "welcome" || nav.Index != 0 {
		t.Errorf("entered nav = %+v", nav)
	}
	if !b.ScopeAlive(w.Scope()) {
		t.Error("flow scope should be alive after Start")
	}
}

func TestStart_Twice(t *testing.T) {
	b := newTestBus(t)
	w := New(b, "setup")
	w.Page("only")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestNext_MovesAndSwapsOwners(t *testing.T) {
	b := newTestBus(t)
	left := recordNav(t, b, KindPageLeft)

	page1Got := make(chan bus.Message, 8)
	page2Got := make(chan bus.Message, 8)

	w := New(b, "setup")
	w.Page("one").Subscribe("probe", func(m bus.Message) { page1Got <- m })
	w.Page("two").Subscribe("probe", func(m bus.Message) { page2Got <- m })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	// On page one: only page one's handler is mounted.
	if err := b.Fire(bus.Signal("probe", bus.ToScope(w.Scope()))); err != nil {
		t.Fatal(err)
	}
	select {
	case <-page1Got:
	case <-time.After(2 * time.Second):
		t.Fatal("page one handler did not run while mounted")
	}

	if err := w.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	nav := waitNav(t, left)
	if nav.Page != "one" {
		t.Errorf("left nav = %+v", nav)
	}
	if page, idx, ok := w.Current(); !ok || page != "two" || idx != 1 {
		t.Errorf("Current() after Next = %v %d %v", page, idx, ok)
	}

	// On page two: page one is unmounted, page two mounted.
	if err := b.Fire(bus.Signal("probe", bus.ToScope(w.Scope()))); err != nil {
		t.Fatal(err)
	}
	select {
	case <-page2Got:
	case <-time.After(2 * time.Second):
		t.Fatal("page two handler did not run while mounted")
	}
	select {
	case m := <-page1Got:
		t.Errorf("page one handler ran after leaving its page: %v", m.Kind())
	default:
	}
}

func TestNext_GuardVeto(t *testing.T) {
	b := newTestBus(t)
	w := New(b, "setup")
	allow := false
	w.Page("form").CanLeave(func(PageContext) bool { return allow })
	w.Page("done")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := w.Next(); err != ErrGuardRejected {
		t.Fatalf("Next() with vetoing guard = %v, want ErrGuardRejected", err)
	}
	if page, _, _ := w.Current(); page != "form" {
		t.Errorf("page after veto = %v", page)
	}

	allow = true
	if err := w.Next(); err != nil {
		t.Errorf("Next() after guard opens = %v", err)
	}
}

func TestNavigation_Bounds(t *testing.T) {
	b := newTestBus(t)
	w := New(b, "setup")
	w.Page("one")
	w.Page("two")

	if err := w.Next(); err != ErrNotRunning {
		t.Errorf("Next() before Start = %v, want ErrNotRunning", err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Back(); err != ErrFirstPage {
		t.Errorf("Back() on first page = %v, want ErrFirstPage", err)
	}
	if err := w.Finish(); err != ErrLastPage {
		t.Errorf("Finish() off last page = %v, want ErrLastPage", err)
	}
	if err := w.Next(); err != nil {
		t.Fatal(err)
	}
	if err := w.Next(); err != ErrLastPage {
		t.Errorf("Next() on last page = %v, want ErrLastPage", err)
	}
	if err := w.Back(); err != nil {
		t.Errorf("Back() from last page = %v", err)
	}
}

func TestFinish_TearsDownScope(t *testing.T) {
	b := newTestBus(t)
	finished := recordNav(t, b, KindFinished)

	w := New(b, "setup")
	w.Page("only")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	scope := w.Scope()

	if err := w.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	nav := waitNav(t, finished)
	if nav.Page != "only" {
		t.Errorf("finished nav = %+v", nav)
	}
	if b.ScopeAlive(scope) {
		t.Error("flow scope should be dropped after Finish")
	}
	if _, _, ok := w.Current(); ok {
		t.Error("Current() should report not running after Finish")
	}
	if err := w.Next(); err != ErrNotRunning {
		t.Errorf("Next() after Finish = %v, want ErrNotRunning", err)
	}
}

func TestCancel_SkipsGuard(t *testing.T) {
	b := newTestBus(t)
	cancelled := recordNav(t, b, KindCancelled)

	w := New(b, "setup")
	w.Page("form").CanLeave(func(PageContext) bool { return false })
	w.Page("done")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	scope := w.Scope()

	if err := w.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	nav := waitNav(t, cancelled)
	if nav.Page != "form" {
		t.Errorf("cancelled nav = %+v", nav)
	}
	if b.ScopeAlive(scope) {
		t.Error("flow scope should be dropped after Cancel")
	}
}

// Navigation driven from a UI-loop handler must not wedge the loop:
// nav messages deliver inline there, and their subscribers may call
// back into the wizard.
func TestNavigation_FromUIHandler(t *testing.T) {
	b := newTestBus(t)

	w := New(b, "setup")
	w.Page("one")
	w.Page("two")

	current := make(chan PageID, 8)
	if _, err := b.Subscribe(KindPageEntered, func(bus.Message) {
		if page, _, ok := w.Current(); ok {
			current <- page
		}
	}); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	waitPage := func(want PageID) {
		t.Helper()
		select {
		case got := <-current:
			if got != want {
				t.Fatalf("current page seen by nav subscriber = %v, want %v", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("nav subscriber never observed page %v", want)
		}
	}
	waitPage("one")

	advanced := make(chan error, 1)
	if _, err := b.Subscribe("next.clicked", func(bus.Message) {
		advanced <- w.Next()
	}); err != nil {
		t.Fatal(err)
	}
	if err := b.Fire(bus.Signal("next.clicked")); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-advanced:
		if err != nil {
			t.Fatalf("Next() from UI handler = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() from a UI handler did not complete")
	}
	waitPage("two")
}

func TestPage_AfterStartPanics(t *testing.T) {
	b := newTestBus(t)
	w := New(b, "setup")
	w.Page("one")
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Page() after Start should panic")
		}
	}()
	w.Page("late")
}
