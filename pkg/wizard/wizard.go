// Package wizard drives a linear multi-page flow on top of the bus.
//
// A wizard owns one scope for its whole run and one transient owner
// per page. Exactly one page is mounted at a time: moving between
// pages deactivates the page being left and activates the one being
// entered, so each page's subscriptions only see messages while that
// page is on screen. Navigation itself is announced on the bus
// (KindPageEntered and friends) inside the wizard's scope, so widgets
// in the same flow can react without wiring callbacks.
package wizard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pulsekit/pulse/pkg/bus"
	"github.com/pulsekit/pulse/pkg/failfast"
)

// PageID identifies a page within a wizard.
type PageID string

// Message kinds fired by a wizard into its scope.
const (
	KindPageEntered bus.Kind = "wizard.page.entered"
	KindPageLeft    bus.Kind = "wizard.page.left"
	KindFinished    bus.Kind = "wizard.finished"
	KindCancelled   bus.Kind = "wizard.cancelled"
)

var (
	// ErrNotRunning is returned when navigating a wizard that has not
	// been started, or has already finished or been cancelled.
	ErrNotRunning = errors.New("wizard: not running")

	// ErrAlreadyStarted is returned by Start on a second call.
	ErrAlreadyStarted = errors.New("wizard: already started")

	// ErrFirstPage is returned by Back on the first page.
	ErrFirstPage = errors.New("wizard: already on first page")

	// ErrLastPage is returned by Next on the last page.
	ErrLastPage = errors.New("wizard: already on last page")

	// ErrGuardRejected is returned when the current page's CanLeave
	// guard vetoes the navigation.
	ErrGuardRejected = errors.New("wizard: leave rejected by guard")
)

// PageContext is passed to page hooks and guards.
type PageContext struct {
	Wizard *Wizard
	Page   PageID
	Index  int
}

// Hook runs on page entry or exit.
type Hook func(PageContext)

// Guard decides whether the current page may be left.
type Guard func(PageContext) bool

// Nav is the payload of every navigation message.
type Nav struct {
	Flow  string
	Page  PageID
	Index int
}

type pageConfig struct {
	id       PageID
	onEnter  []Hook
	onLeave  []Hook
	canLeave Guard
	subs     []pageSub
}

// pageSub is a subscription declared on a page before Start. It is
// registered against the bus when the wizard starts, bound to the
// page's transient owner.
type pageSub struct {
	kind    bus.Kind
	handler bus.Handler
}

// PageBuilder configures one page fluently.
type PageBuilder struct {
	page *pageConfig
}

// OnEnter adds a hook run after the page's owner is activated.
func (b *PageBuilder) OnEnter(h Hook) *PageBuilder {
	b.page.onEnter = append(b.page.onEnter, h)
	return b
}

// OnLeave adds a hook run before the page's owner is deactivated.
func (b *PageBuilder) OnLeave(h Hook) *PageBuilder {
	b.page.onLeave = append(b.page.onLeave, h)
	return b
}

// CanLeave installs the guard consulted by Next and Finish. Back and
// Cancel never consult it.
func (b *PageBuilder) CanLeave(g Guard) *PageBuilder {
	b.page.canLeave = g
	return b
}

// Subscribe declares a handler active only while this page is the
// current one. The subscription is scoped to the wizard's flow.
func (b *PageBuilder) Subscribe(kind bus.Kind, handler bus.Handler) *PageBuilder {
	b.page.subs = append(b.page.subs, pageSub{kind: kind, handler: handler})
	return b
}

// Wizard is a linear page flow. Configure pages with Page before
// Start; navigation methods are safe for concurrent use afterwards.
type Wizard struct {
	b    *bus.Bus
	name string

	mu      sync.Mutex
	pages   []*pageConfig
	index   int
	scope   bus.ScopeID
	handles []bus.Handle
	started bool
	done    bool
}

// New creates a wizard named name on b. The name prefixes page owner
// identifiers and tags navigation payloads.
func New(b *bus.Bus, name string) *Wizard {
	failfast.NotNil(b, "wizard: bus")
	failfast.NotEmpty(name, "wizard: name")
	return &Wizard{b: b, name: name}
}

// Page appends a page to the flow and returns its builder. Pages are
// visited in the order they are added. Adding a page after Start
// panics.
func (w *Wizard) Page(id PageID) *PageBuilder {
	failfast.NotEmpty(string(id), "wizard: page id")
	w.mu.Lock()
	defer w.mu.Unlock()
	failfast.If(!w.started, "wizard %s: page added after start", w.name)
	for _, p := range w.pages {
		failfast.If(p.id != id, "wizard %s: duplicate page %s", w.name, id)
	}
	p := &pageConfig{id: id}
	w.pages = append(w.pages, p)
	return &PageBuilder{page: p}
}

// Scope returns the flow's scope. Zero before Start.
func (w *Wizard) Scope() bus.ScopeID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scope
}

// Current returns the current page and its index. The bool is false
// when the wizard is not running.
func (w *Wizard) Current() (PageID, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.done {
		return "", 0, false
	}
	return w.pages[w.index].id, w.index, true
}

func (w *Wizard) owner(p *pageConfig) bus.OwnerID {
	return bus.OwnerID(fmt.Sprintf("wizard/%s/%s", w.name, p.id))
}

// Start opens the flow's scope, registers every page's subscriptions
// against it, and enters the first page.
func (w *Wizard) Start() error {
	fires, err := w.start()
	w.fire(fires)
	return err
}

func (w *Wizard) start() ([]bus.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil, ErrAlreadyStarted
	}
	failfast.If(len(w.pages) > 0, "wizard %s: no pages configured", w.name)

	w.scope = w.b.NewScope()
	for _, p := range w.pages {
		for _, s := range p.subs {
			h, err := w.b.Subscribe(s.kind, s.handler,
				bus.ForOwner(w.owner(p)), bus.InScope(w.scope))
			if err != nil {
				w.teardownLocked()
				return nil, fmt.Errorf("wizard %s: subscribe page %s: %w", w.name, p.id, err)
			}
			w.handles = append(w.handles, h)
		}
	}

	w.started = true
	w.index = 0
	return []bus.Message{w.enterLocked(w.pages[0])}, nil
}

// Next moves to the following page. The current page's CanLeave guard
// may veto with ErrGuardRejected.
func (w *Wizard) Next() error {
	fires, err := w.next()
	w.fire(fires)
	return err
}

func (w *Wizard) next() ([]bus.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.done {
		return nil, ErrNotRunning
	}
	if w.index == len(w.pages)-1 {
		return nil, ErrLastPage
	}
	cur := w.pages[w.index]
	if cur.canLeave != nil && !cur.canLeave(w.ctxLocked(cur)) {
		return nil, ErrGuardRejected
	}
	left := w.leaveLocked(cur)
	w.index++
	return []bus.Message{left, w.enterLocked(w.pages[w.index])}, nil
}

// Back moves to the previous page. Guards are not consulted: going
// back never loses forward progress.
func (w *Wizard) Back() error {
	fires, err := w.back()
	w.fire(fires)
	return err
}

func (w *Wizard) back() ([]bus.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.done {
		return nil, ErrNotRunning
	}
	if w.index == 0 {
		return nil, ErrFirstPage
	}
	left := w.leaveLocked(w.pages[w.index])
	w.index--
	return []bus.Message{left, w.enterLocked(w.pages[w.index])}, nil
}

// Finish completes the flow from the last page. The last page's guard
// may veto. On success the flow's scope is dropped, which also removes
// every page subscription.
func (w *Wizard) Finish() error {
	fires, err := w.finish()
	w.fire(fires)
	return err
}

func (w *Wizard) finish() ([]bus.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.done {
		return nil, ErrNotRunning
	}
	if w.index != len(w.pages)-1 {
		return nil, ErrLastPage
	}
	cur := w.pages[w.index]
	if cur.canLeave != nil && !cur.canLeave(w.ctxLocked(cur)) {
		return nil, ErrGuardRejected
	}
	fires := []bus.Message{w.leaveLocked(cur), w.navMsg(KindFinished, cur)}
	w.done = true
	w.teardownLocked()
	return fires, nil
}

// Cancel abandons the flow from any page, skipping guards.
func (w *Wizard) Cancel() error {
	fires, err := w.cancel()
	w.fire(fires)
	return err
}

func (w *Wizard) cancel() ([]bus.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.done {
		return nil, ErrNotRunning
	}
	cur := w.pages[w.index]
	fires := []bus.Message{w.leaveLocked(cur), w.navMsg(KindCancelled, cur)}
	w.done = true
	w.teardownLocked()
	return fires, nil
}

func (w *Wizard) ctxLocked(p *pageConfig) PageContext {
	return PageContext{Wizard: w, Page: p.id, Index: w.index}
}

func (w *Wizard) enterLocked(p *pageConfig) bus.Message {
	w.b.Activate(w.owner(p))
	for _, h := range p.onEnter {
		h(w.ctxLocked(p))
	}
	return w.navMsg(KindPageEntered, p)
}

func (w *Wizard) leaveLocked(p *pageConfig) bus.Message {
	for _, h := range p.onLeave {
		h(w.ctxLocked(p))
	}
	w.b.Deactivate(w.owner(p))
	return w.navMsg(KindPageLeft, p)
}

func (w *Wizard) navMsg(kind bus.Kind, p *pageConfig) bus.Message {
	return bus.NewMessage(kind,
		Nav{Flow: w.name, Page: p.id, Index: w.index},
		bus.ToScope(w.scope))
}

// fire publishes the navigation messages collected during a
// transition. It runs with w.mu released: UI-affinity messages can
// deliver inline on the caller's goroutine, and a handler reacting to
// them may call back into the wizard without deadlocking.
func (w *Wizard) fire(msgs []bus.Message) {
	for _, msg := range msgs {
		// A closed bus only means the process is shutting down
		// mid-flow.
		_ = w.b.Fire(msg)
	}
}

func (w *Wizard) teardownLocked() {
	if !w.scope.IsZero() {
		w.b.DropScope(w.scope)
	}
	w.handles = nil
}
