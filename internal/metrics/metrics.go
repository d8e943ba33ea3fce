// Package metrics sets up the OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func readers(ctx context.Context, cfg Config) ([]sdkmetric.Reader, error) {
	var out []sdkmetric.Reader

	for _, p := range cfg.Provider {
		switch p.Provider {
		case PrometheusProvider:
			exp, err := prometheus.New()
			if err != nil {
				return nil, fmt.Errorf("prometheus exporter: %w", err)
			}
			out = append(out, exp)
		case OtelCollector:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(p.Endpoint),
				otlpmetricgrpc.WithHeaders(p.Headers),
			}
			if p.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}

			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("otlp metric exporter: %w", err)
			}
			out = append(out, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.interval())))
		default:
			return nil, fmt.Errorf("unknown metric provider %q", p.Provider)
		}
	}
	return out, nil
}

// NewMetricProvider builds a meter provider from the configured readers and
// installs it globally. With no provider configured, meters are created but
// nothing is exported.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	rs, err := readers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))),
	}
	for _, r := range rs {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)
	return provider, nil
}

// PrometheusServer serves /metrics on its own listener.
type PrometheusServer struct {
	server *http.Server
}

// NewPrometheusServer creates the scrape endpoint server.
func NewPrometheusServer(opt ...PromOptionFn) *PrometheusServer {
	cfg := PromServerConfig{port: "2223"}
	for _, o := range opt {
		cfg = o(cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &PrometheusServer{server: &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Handler returns the scrape handler.
func (s *PrometheusServer) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *PrometheusServer) Addr() string {
	return s.server.Addr
}

// Start serves until Shutdown is called.
func (s *PrometheusServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server.
func (s *PrometheusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
