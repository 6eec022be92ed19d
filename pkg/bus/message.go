package bus

// Kind tags a message with its concrete type. The registry is keyed
// on Kind, so dispatch never inspects payload types at runtime.
type Kind string

// Affinity selects the execution context a message's handlers run on.
type Affinity int

const (
	// AffinityUI delivers on the single UI event loop, in global
	// fire order.
	AffinityUI Affinity = iota

	// AffinityWorker delivers on the worker pool; each fire call is
	// one unit of work.
	AffinityWorker
)

func (a Affinity) String() string {
	switch a {
	case AffinityUI:
		return "ui"
	case AffinityWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// Message is an immutable fired value: a kind, an optional payload,
// a thread affinity, and an optional scope. Messages are created by
// the firing caller and discarded after dispatch completes.
type Message struct {
	kind     Kind
	payload  any
	affinity Affinity
	scope    ScopeID
}

// MessageOption configures a message at construction time.
type MessageOption func(*Message)

// WithAffinity sets the message's delivery context.
func WithAffinity(a Affinity) MessageOption {
	return func(m *Message) { m.affinity = a }
}

// ToScope restricts the message to subscribers of scope s (global
// subscribers still receive it).
func ToScope(s ScopeID) MessageOption {
	return func(m *Message) { m.scope = s }
}

// NewMessage creates a payload-bearing message. Affinity defaults to
// AffinityUI and scope to the global broadcast.
func NewMessage(kind Kind, payload any, opts ...MessageOption) Message {
	m := Message{kind: kind, payload: payload}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Signal creates a payload-less message. Signals are plain values, so
// a frequently fired signal can be built once and reused.
func Signal(kind Kind, opts ...MessageOption) Message {
	return NewMessage(kind, nil, opts...)
}

// Kind returns the message's kind tag.
func (m Message) Kind() Kind { return m.kind }

// Payload returns the payload, nil for signals.
func (m Message) Payload() any { return m.payload }

// Affinity returns the delivery context.
func (m Message) Affinity() Affinity { return m.affinity }

// Scope returns the target scope, NoScope for global broadcasts.
func (m Message) Scope() ScopeID { return m.scope }
