// Package widget is construction sugar for component graphs on the
// bus. A Graph owns one scope; components built inside it declare
// their handlers with functional options and get the mount contract
// (Attach/Detach) and graph teardown (Discard) for free. The package
// adds no behavior of its own: everything routes through the bus's
// scope and lifecycle surfaces.
package widget

import (
	"fmt"
	"sync"

	"github.com/pulsekit/pulse/pkg/bus"
	"github.com/pulsekit/pulse/pkg/failfast"
)

// Graph groups components under one isolation scope. Two graphs on
// the same bus never see each other's scoped messages.
type Graph struct {
	b     *bus.Bus
	scope bus.ScopeID

	mu        sync.Mutex
	names     map[string]bool
	discarded bool
}

// NewGraph pushes a fresh scope on b and returns the graph bound to
// it.
func NewGraph(b *bus.Bus) *Graph {
	failfast.NotNil(b, "widget: bus")
	return &Graph{
		b:     b,
		scope: b.NewScope(),
		names: make(map[string]bool),
	}
}

// Scope returns the graph's isolation scope.
func (g *Graph) Scope() bus.ScopeID { return g.scope }

// Fire sends a message into the graph's scope. Global (no-scope)
// subscribers still see it; other graphs do not.
func (g *Graph) Fire(kind bus.Kind, payload any, opts ...bus.MessageOption) error {
	opts = append(opts, bus.ToScope(g.scope))
	return g.b.Fire(bus.NewMessage(kind, payload, opts...))
}

// Discard drops the graph's scope, removing every component
// subscription built inside it. The graph is unusable afterwards.
func (g *Graph) Discard() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.discarded {
		return
	}
	g.discarded = true
	g.b.DropScope(g.scope)
}

type spec struct {
	subs       []subSpec
	persistent bool
}

type subSpec struct {
	kind    bus.Kind
	handler bus.Handler
}

// Option configures a component under construction.
type Option func(*spec)

// On declares a handler for kind, bound to the component's owner and
// the graph's scope.
func On(kind bus.Kind, h bus.Handler) Option {
	return func(s *spec) {
		s.subs = append(s.subs, subSpec{kind: kind, handler: h})
	}
}

// Persistent marks the component immune to the mount cycle: its
// handlers are live from construction until the graph is discarded,
// and Detach has no effect on them.
func Persistent() Option {
	return func(s *spec) { s.persistent = true }
}

// Component is a named set of subscriptions sharing one owner inside
// a graph.
type Component struct {
	g     *Graph
	name  string
	owner bus.OwnerID
}

// New builds a component named name in g. Transient components start
// unmounted: call Attach when the component goes on screen. Names are
// unique per graph.
func New(g *Graph, name string, opts ...Option) *Component {
	failfast.NotNil(g, "widget: graph")
	failfast.NotEmpty(name, "widget: component name")

	var s spec
	for _, opt := range opts {
		opt(&s)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	failfast.If(!g.discarded, "widget: graph already discarded")
	failfast.If(!g.names[name], "widget: duplicate component %q in graph", name)
	g.names[name] = true

	c := &Component{
		g:     g,
		name:  name,
		owner: bus.OwnerID(fmt.Sprintf("widget/%s/%s", g.scope, name)),
	}
	for _, sub := range s.subs {
		_, err := g.b.Subscribe(sub.kind, sub.handler,
			bus.ForOwner(c.owner), bus.InScope(g.scope))
		failfast.Err(err)
	}
	if s.persistent {
		g.b.MarkPersistent(c.owner)
	}
	return c
}

// Name returns the component's name within its graph.
func (c *Component) Name() string { return c.name }

// Owner returns the bus owner identifier the component's
// subscriptions are bound to.
func (c *Component) Owner() bus.OwnerID { return c.owner }

// Attach mounts the component: its handlers start receiving.
func (c *Component) Attach() { c.g.b.Activate(c.owner) }

// Detach unmounts the component. Persistent components ignore it.
func (c *Component) Detach() { c.g.b.Deactivate(c.owner) }
