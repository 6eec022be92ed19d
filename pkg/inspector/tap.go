package inspector

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulsekit/pulse/pkg/bus"
)

// tapEvent is one line of the live feed.
type tapEvent struct {
	Event      string `json:"event"` // fired, delivered, fault, dropped
	Kind       string `json:"kind"`
	Affinity   string `json:"affinity"`
	Scope      string `json:"scope"`
	Owner      string `json:"owner,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Candidates int    `json:"candidates,omitempty"`
	Time       int64  `json:"ts"`
}

// tapClient forwards bus activity to one websocket connection. It is
// registered as a bus observer for the connection's lifetime; writes
// that cannot keep up are dropped rather than slowing the bus.
type tapClient struct {
	conn   *websocket.Conn
	events chan tapEvent
	once   sync.Once
	closed chan struct{}
}

func (i *Inspector) handleTap(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		// Loopback debug endpoint: any origin is fine.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Errorf("inspector: websocket upgrade failed: %v", err)
		return
	}

	client := &tapClient{
		conn:   conn,
		events: make(chan tapEvent, 256),
		closed: make(chan struct{}),
	}
	remove := i.bus.AddObserver(client)

	go client.writeLoop(i.logger, remove)
	go client.readLoop()
}

func (c *tapClient) writeLoop(logger bus.Logger, remove func()) {
	defer func() {
		remove()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.events:
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.Debugf("inspector: tap client gone: %v", err)
				c.close()
				return
			}
		}
	}
}

// readLoop exists to notice the peer closing the connection.
func (c *tapClient) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.close()
			return
		}
	}
}

func (c *tapClient) close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *tapClient) push(ev tapEvent) {
	ev.Time = time.Now().UnixMilli()
	select {
	case c.events <- ev:
	default:
		// Feed is best-effort; never block a dispatch.
	}
}

// MessageFired implements bus.Observer.
func (c *tapClient) MessageFired(msg bus.Message, candidates int) {
	c.push(tapEvent{
		Event:      "fired",
		Kind:       string(msg.Kind()),
		Affinity:   msg.Affinity().String(),
		Scope:      msg.Scope().String(),
		Candidates: candidates,
	})
}

// MessageDelivered implements bus.Observer.
func (c *tapClient) MessageDelivered(msg bus.Message, owner bus.OwnerID) {
	c.push(tapEvent{
		Event:    "delivered",
		Kind:     string(msg.Kind()),
		Affinity: msg.Affinity().String(),
		Scope:    msg.Scope().String(),
		Owner:    string(owner),
	})
}

// HandlerFault implements bus.Observer.
func (c *tapClient) HandlerFault(msg bus.Message, owner bus.OwnerID, _ any) {
	c.push(tapEvent{
		Event:    "fault",
		Kind:     string(msg.Kind()),
		Affinity: msg.Affinity().String(),
		Scope:    msg.Scope().String(),
		Owner:    string(owner),
	})
}

// MessageDropped implements bus.Observer.
func (c *tapClient) MessageDropped(msg bus.Message, reason string) {
	c.push(tapEvent{
		Event:    "dropped",
		Kind:     string(msg.Kind()),
		Affinity: msg.Affinity().String(),
		Scope:    msg.Scope().String(),
		Reason:   reason,
	})
}
