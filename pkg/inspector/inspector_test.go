package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

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

func TestHandleStatus(t *testing.T) {
	b := newTestBus(t)
	if _, err := b.Subscribe("k", func(bus.Message) {}); err != nil {
		t.Fatal(err)
	}

	insp := New(Config{}, b, nil)
	rec := httptest.NewRecorder()
	insp.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var stats bus.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if stats.Kinds["k"].Subscriptions != 1 {
		t.Errorf("status kinds = %+v", stats.Kinds)
	}
}

func TestStart_EmptyAddrIsNoop(t *testing.T) {
	b := newTestBus(t)
	insp := New(Config{}, b, nil)
	insp.Start()
	if err := insp.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestTap_StreamsFiredMessages(t *testing.T) {
	b := newTestBus(t)
	insp := New(Config{Addr: "127.0.0.1:0"}, b, nil)

	srv := httptest.NewServer(http.HandlerFunc(insp.handleTap))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tap"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial tap: %v", err)
	}
	defer conn.Close()

	// The observer registers during the upgrade handler; give the
	// handshake goroutines a moment before firing.
	deadline := time.Now().Add(2 * time.Second)
	var ev tapEvent
	for {
		if err := b.Fire(bus.Signal("tap.probe")); err != nil {
			t.Fatal(err)
		}
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		if err := conn.ReadJSON(&ev); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no tap event received")
		}
	}
	if ev.Kind != "tap.probe" || ev.Event != "fired" {
		t.Errorf("tap event = %+v", ev)
	}
}

var _ bus.Observer = (*tapClient)(nil)
