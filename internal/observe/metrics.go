// Package observe wires recruitgraph into OpenTelemetry. It owns the metric
// instruments every component records into, the query and HTTP spans, a
// logger that stamps trace IDs onto records, and [InitProvider], which
// installs the SDK with a Prometheus bridge for /metrics.
//
// Components take a *[Metrics] as a dependency. Tests build their own with
// [NewMetrics] over an SDK meter provider and a manual reader; production
// code that was given none falls back to [DefaultMetrics].
package observe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values for the status attribute.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics groups the instruments recruitgraph records into. Instrument names
// are prefixed "recruitgraph." and attribute keys are listed per field.
type Metrics struct {
	// QueryDuration is graph query latency; keyed by query.
	QueryDuration metric.Float64Histogram
	// Queries counts graph queries; keyed by query, status.
	Queries metric.Int64Counter
	// TraversalSize is how many creatures a stock-gated traversal reached.
	TraversalSize metric.Int64Histogram

	// VariantLoads counts variant definitions read; keyed by source
	// ("file" or "store"), status.
	VariantLoads metric.Int64Counter
	// StockChanges counts creatures leaving or re-entering the caretaker;
	// keyed by creature, op.
	StockChanges metric.Int64Counter
	// ToolCalls counts MCP tool invocations; keyed by tool, status.
	ToolCalls metric.Int64Counter

	// GraphVertices and GraphEdges describe the active graph; keyed by
	// variant.
	GraphVertices metric.Int64Gauge
	GraphEdges    metric.Int64Gauge

	// HTTPRequestDuration is recorded by [Middleware]; keyed by method,
	// route, status_class.
	HTTPRequestDuration metric.Float64Histogram
}

// Graph queries run in memory; most finish within microseconds.
var queryBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1,
}

var traversalBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128}

// instruments collects creation errors so NewMetrics can report all of them
// at once.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) histogram(name, desc, unit string, buckets []float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit(unit)}
	if buckets != nil {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := in.meter.Float64Histogram("recruitgraph."+name, opts...)
	in.errs = append(in.errs, err)
	return h
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter("recruitgraph."+name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return c
}

func (in *instruments) gauge(name, desc string) metric.Int64Gauge {
	g, err := in.meter.Int64Gauge("recruitgraph."+name, metric.WithDescription(desc))
	in.errs = append(in.errs, err)
	return g
}

// NewMetrics creates every instrument on a meter from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	in := &instruments{meter: mp.Meter(instrumentationScope)}

	m := &Metrics{
		QueryDuration: in.histogram("query.duration", "Latency of recruit graph queries.", "s", queryBuckets),
		Queries:       in.counter("queries", "Recruit graph queries by query and status."),
		VariantLoads:  in.counter("variant.loads", "Variant loads by source and status."),
		StockChanges:  in.counter("stock.changes", "Creatures taken from or returned to the caretaker."),
		ToolCalls:     in.counter("tool.calls", "MCP tool invocations by tool and status."),
		GraphVertices: in.gauge("graph.vertices", "Vertices in the active recruit graph."),
		GraphEdges:    in.gauge("graph.edges", "Edges in the active recruit graph."),
		HTTPRequestDuration: in.histogram("http.request.duration",
			"HTTP request latency by method, route and status class.", "s", nil),
	}

	size, err := in.meter.Int64Histogram("recruitgraph.traversal.size",
		metric.WithDescription("Creatures reached by a constrained traversal."),
		metric.WithExplicitBucketBoundaries(traversalBuckets...),
	)
	in.errs = append(in.errs, err)
	m.TraversalSize = size

	if err := errors.Join(in.errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultMetrics returns process-wide instruments on [otel.GetMeterProvider],
// created on first use. It panics if the global provider rejects them.
var DefaultMetrics = sync.OnceValue(func() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		panic("observe: default metrics: " + err.Error())
	}
	return m
})

// Attr builds a string span attribute.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// StatusOf maps err to [StatusOK] or [StatusError].
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

func keyed(kv ...string) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	return metric.WithAttributes(attrs...)
}

// RecordQuery records latency and outcome of one graph query.
func (m *Metrics) RecordQuery(ctx context.Context, query, status string, d time.Duration) {
	m.QueryDuration.Record(ctx, d.Seconds(), keyed("query", query))
	m.Queries.Add(ctx, 1, keyed("query", query, "status", status))
}

func (m *Metrics) RecordTraversal(ctx context.Context, reached int) {
	m.TraversalSize.Record(ctx, int64(reached))
}

// RecordVariantLoad counts a variant read from source ("file" or "store").
func (m *Metrics) RecordVariantLoad(ctx context.Context, source, status string) {
	m.VariantLoads.Add(ctx, 1, keyed("source", source, "status", status))
}

// RecordStockChange counts n creatures moved by op ("take" or "return").
func (m *Metrics) RecordStockChange(ctx context.Context, creature, op string, n int) {
	m.StockChanges.Add(ctx, int64(n), keyed("creature", creature, "op", op))
}

func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1, keyed("tool", tool, "status", status))
}

// RecordGraphSize sets the size gauges for the graph built from variant.
func (m *Metrics) RecordGraphSize(ctx context.Context, variant string, vertices, edges int) {
	v := keyed("variant", variant)
	m.GraphVertices.Record(ctx, int64(vertices), v)
	m.GraphEdges.Record(ctx, int64(edges), v)
}
