// Package inspector serves a process-local debug endpoint for the
// bus: registry and queue state as JSON, Prometheus metrics, and a
// websocket tap streaming fired messages live.
package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulsekit/pulse/pkg/bus"
	obsprom "github.com/pulsekit/pulse/pkg/observability/prometheus"
)

// Config configures the inspector server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:6090". Empty
	// disables the inspector.
	Addr string `yaml:"addr" json:"addr"`
}

// Inspector exposes bus internals over HTTP. It is a debugging aid:
// bind it to loopback.
type Inspector struct {
	bus    *bus.Bus
	addr   string
	logger bus.Logger
	server *http.Server
}

// New creates an Inspector for b.
func New(cfg Config, b *bus.Bus, logger bus.Logger) *Inspector {
	if logger == nil {
		logger = bus.NewDefaultLogger()
	}
	return &Inspector{bus: b, addr: cfg.Addr, logger: logger}
}

// Start begins serving in a background goroutine. A zero Addr makes
// Start a no-op.
func (i *Inspector) Start() {
	if i.addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", i.handleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(obsprom.DefaultRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/tap", i.handleTap)

	i.server = &http.Server{
		Addr:              i.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := i.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			i.logger.Errorf("inspector: serve failed: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (i *Inspector) Stop(ctx context.Context) error {
	if i.server == nil {
		return nil
	}
	return i.server.Shutdown(ctx)
}

func (i *Inspector) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(i.bus.Stats()); err != nil {
		i.logger.Errorf("inspector: encode status: %v", err)
	}
}
