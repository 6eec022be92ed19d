// Demo wiring for the pulse bus: config with env overrides, tracing,
// metrics, the inspector, a widget graph, and a wizard flow.
//
// Run it, watch the log, and poke http://127.0.0.1:6090/status while
// it ticks. PULSE_BUS_WORKERS=2 (and friends) override the file.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsekit/pulse/pkg/bus"
	"github.com/pulsekit/pulse/pkg/config"
	"github.com/pulsekit/pulse/pkg/inspector"
	obsprom "github.com/pulsekit/pulse/pkg/observability/prometheus"
	"github.com/pulsekit/pulse/pkg/observability/tracing"
	"github.com/pulsekit/pulse/pkg/widget"
	"github.com/pulsekit/pulse/pkg/wizard"
)

type appConfig struct {
	Bus       bus.Config       `yaml:"bus" json:"bus"`
	Tracing   tracing.Config   `yaml:"tracing" json:"tracing"`
	Inspector inspector.Config `yaml:"inspector" json:"inspector"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Bus:       bus.DefaultConfig(),
		Tracing:   tracing.DefaultConfig(),
		Inspector: inspector.Config{Addr: "127.0.0.1:6090"},
	}
}

func main() {
	configPath := flag.String("config", "", "path to YAML/JSON config file")
	flag.Parse()

	logger := bus.NewDefaultLogger()

	cfg := defaultAppConfig()
	if *configPath != "" {
		if err := config.LoadWithEnv(*configPath, "PULSE", &cfg); err != nil {
			logger.Errorf("load config: %v", err)
			os.Exit(1)
		}
	} else if err := config.ApplyEnvOverrides("PULSE", &cfg); err != nil {
		logger.Errorf("apply env overrides: %v", err)
		os.Exit(1)
	}
	if err := config.Validate(&cfg,
		config.Range("Bus.Workers", 1, 256),
		config.Range("Bus.UIQueueSize", 1, 1<<20),
	); err != nil {
		logger.Errorf("invalid config: %v", err)
		os.Exit(1)
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing)
	if err != nil {
		logger.Errorf("tracing setup: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	b := bus.New(ctx, cfg.Bus,
		bus.WithLogger(logger),
		bus.WithObserver(obsprom.GetMetrics()),
	)

	insp := inspector.New(cfg.Inspector, b, logger)
	insp.Start()
	if cfg.Inspector.Addr != "" {
		logger.Infof("inspector listening on %s", cfg.Inspector.Addr)
	}

	// A graph with a chart that mounts and unmounts, and a controller
	// that outlives the mount cycle.
	g := widget.NewGraph(b)
	chart := widget.New(g, "chart",
		widget.On("data.updated", func(m bus.Message) {
			logger.Infof("chart: repaint with %v", m.Payload())
		}),
	)
	widget.New(g, "controller", widget.Persistent(),
		widget.On("data.updated", func(m bus.Message) {
			logger.Debugf("controller: cached %v", m.Payload())
		}),
	)
	chart.Attach()

	// Background feed: samples are computed off the UI loop.
	stopFeed := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopFeed:
				return
			case <-ticker.C:
				err := g.Fire("data.updated", rand.Intn(100),
					bus.WithAffinity(bus.AffinityWorker))
				if err != nil {
					return
				}
			}
		}
	}()

	// Flip the chart's mount state now and then so the lifecycle
	// filtering is visible in the log.
	go func() {
		mounted := true
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopFeed:
				return
			case <-ticker.C:
				if mounted {
					chart.Detach()
				} else {
					chart.Attach()
				}
				mounted = !mounted
				logger.Infof("chart mounted=%v", mounted)
			}
		}
	}()

	runWizard(b, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Infof("shutting down")

	close(stopFeed)
	g.Discard()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := insp.Stop(shutdownCtx); err != nil {
		logger.Errorf("inspector stop: %v", err)
	}
	if err := b.Close(shutdownCtx); err != nil {
		logger.Errorf("bus close: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Errorf("tracing shutdown: %v", err)
	}
}

// runWizard walks a three-page flow start to finish, logging the
// navigation messages as they land.
func runWizard(b *bus.Bus, logger bus.Logger) {
	w := wizard.New(b, "onboarding")
	w.Page("welcome")
	w.Page("details").
		Subscribe("form.saved", func(m bus.Message) {
			logger.Infof("wizard: form saved: %v", m.Payload())
		}).
		CanLeave(func(wizard.PageContext) bool { return true })
	w.Page("confirm")

	if _, err := b.Subscribe(wizard.KindPageEntered, func(m bus.Message) {
		nav := m.Payload().(wizard.Nav)
		logger.Infof("wizard: entered %s (page %d)", nav.Page, nav.Index+1)
	}); err != nil {
		logger.Errorf("wizard: subscribe: %v", err)
		return
	}

	if err := w.Start(); err != nil {
		logger.Errorf("wizard: start: %v", err)
		return
	}
	for _, step := range []func() error{w.Next, w.Next, w.Finish} {
		if err := step(); err != nil {
			logger.Errorf("wizard: %v", err)
			return
		}
	}
	logger.Infof("wizard: onboarding finished")
}
