package observe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName is reported when [ProviderConfig.ServiceName] is empty.
const DefaultServiceName = "recruitgraph"

// ProviderConfig identifies the process in telemetry and optionally ships
// spans somewhere.
type ProviderConfig struct {
	ServiceName    string
	ServiceVersion string

	// TraceExporter receives batched spans. Nil keeps spans in-process,
	// which is enough for trace IDs in logs and correlation headers.
	TraceExporter sdktrace.SpanExporter
}

// Provider is the installed SDK. Its meter provider feeds a Prometheus
// registry private to this Provider, so two Providers never share series.
type Provider struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider

	// MetricsHandler renders the registry in the Prometheus text format.
	MetricsHandler http.Handler
}

// InitProvider builds meter and tracer providers for cfg and installs both
// as the OTel globals. Call [Provider.Shutdown] before exit to flush.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	bridge, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}

	p := &Provider{
		MeterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(bridge),
		),
		TracerProvider: tracerProvider(res, cfg.TraceExporter),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			ErrorLog: promLogger{},
		}),
	}
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetTracerProvider(p.TracerProvider)
	return p, nil
}

func serviceResource(cfg ProviderConfig) (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: service resource: %w", err)
	}
	return res, nil
}

func tracerProvider(res *resource.Resource, exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Shutdown flushes pending spans and metric state. Both providers are shut
// down even if the first fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}

// promLogger routes promhttp encoding errors into slog.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	Logger(context.Background()).Warn("prometheus: " + fmt.Sprint(v...))
}
