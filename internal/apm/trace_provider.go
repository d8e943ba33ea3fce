// Package apm installs the global OpenTelemetry tracer provider.
package apm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/lp-portfolio/internal/logger"
)

type Provider string

const (
	ConsoleProvider  Provider = "console"
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
	EmptyProvider    Provider = "none"
)

type TraceProvider interface {
	Stop() error
}

// Config selects and configures the span exporter.
type Config struct {
	ServiceName string
	Provider    Provider
	Endpoint    string
	// Headers is a comma-separated list of key=value pairs.
	Headers string
	// Writer receives console spans; stdout when nil.
	Writer io.Writer
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// ParseHeaders parses "k1=v1,k2=v2".
func ParseHeaders(s string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func exporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	headers, err := ParseHeaders(cfg.Headers)
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ConsoleProvider:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		return zipkin.New(cfg.Endpoint)
	case OTLPGRPCProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
			otlptracehttp.WithHeaders(headers),
		)
	default:
		return nil, fmt.Errorf("unknown trace provider %q", cfg.Provider)
	}
}

// NewTraceProvider installs a batching tracer provider for cfg.Provider and
// the W3C propagators. EmptyProvider leaves the global no-op provider.
func NewTraceProvider(ctx context.Context, cfg Config, log logger.LoggerInterface) (TraceProvider, error) {
	if cfg.Provider == EmptyProvider || cfg.Provider == "" {
		return emptyTraceProvider{}, nil
	}

	exp, err := exporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", cfg.Provider, err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", string(cfg.Provider)),
		))
	if err != nil {
		// Schema conflicts with the default resource; keep ours.
		rsrc = resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", string(cfg.Provider), "service", serviceName)
	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
