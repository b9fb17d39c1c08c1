package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammad-safakhou/askweb/config"
)

// Setup initialises the global tracer provider. When telemetry is disabled a
// no-op shutdown is returned. With OTEL_EXPORTER_OTLP_ENDPOINT unset spans go
// to a stdout exporter, which keeps local runs observable without a collector.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	name := cfg.ServiceName
	if name == "" {
		name = "askweb"
	}

	var (
		exp sdktrace.SpanExporter
		err error
	)
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	} else {
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: exporter init: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource init: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// String is a shorthand for a string span attribute.
func String(k, v string) attribute.KeyValue { return attribute.String(k, v) }

// Int is a shorthand for an int span attribute.
func Int(k string, v int) attribute.KeyValue { return attribute.Int(k, v) }

// Metrics holds the prometheus collectors for the chat pipeline. They are
// registered on the default registry and served via /metrics.
type Metrics struct {
	ChatRequests   *prometheus.CounterVec
	ChatSteps      prometheus.Histogram
	ToolExecutions *prometheus.CounterVec
	SearchRequests *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
}

// NewMetrics builds and registers the collectors once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "askweb_chat_requests_total",
			Help: "Chat requests by terminal outcome.",
		}, []string{"outcome"}),
		ChatSteps: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "askweb_chat_steps",
			Help:    "Model invocations per chat request.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		ToolExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "askweb_tool_executions_total",
			Help: "Tool executions by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		SearchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "askweb_search_requests_total",
			Help: "Search provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "askweb_fetch_duration_seconds",
			Help:    "Page fetch duration by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
}
