// Package tracing configures the OpenTelemetry tracer provider the
// bus's dispatch spans are recorded against. The exporter is chosen
// by config: stdout for development, zipkin or jaeger for a real
// collector, none to disable tracing entirely.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Config selects and configures the trace exporter.
type Config struct {
	// Exporter is one of "none", "stdout", "zipkin", "jaeger".
	Exporter string `yaml:"exporter" json:"exporter"`

	// Endpoint is the collector URL for zipkin/jaeger.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// ServiceName names this process in traces. Defaults to "pulse".
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// DefaultConfig disables tracing.
func DefaultConfig() Config {
	return Config{Exporter: "none", ServiceName: "pulse"}
}

// Setup installs a global tracer provider per cfg and returns its
// shutdown function. With Exporter "none" (or empty) nothing is
// installed and the returned shutdown is a no-op.
func Setup(cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if cfg.Exporter == "" || cfg.Exporter == "none" {
		return noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pulse"
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return noop, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(
			stdouttrace.WithWriter(os.Stdout),
			stdouttrace.WithPrettyPrint(),
		)
	case "zipkin":
		return zipkin.New(cfg.Endpoint)
	case "jaeger":
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}
