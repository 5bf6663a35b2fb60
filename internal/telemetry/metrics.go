package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/kitchenops/platecost"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Demo session metrics
	DemoSessionsActive        metric.Int64UpDownCounter
	DemoSessionsCreatedTotal  metric.Int64Counter
	DemoSessionsExpiredTotal  metric.Int64Counter
	DemoSessionsRejectedTotal metric.Int64Counter

	// HTTP metrics
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.DemoSessionsActive, _ = meter.Int64UpDownCounter(
		"platecost.demo.sessions.active",
		metric.WithDescription("Number of currently active demo sessions"),
		metric.WithUnit("{session}"),
	)

	m.DemoSessionsCreatedTotal, _ = meter.Int64Counter(
		"platecost.demo.sessions.created.total",
		metric.WithDescription("Total number of demo sessions created"),
		metric.WithUnit("{session}"),
	)

	m.DemoSessionsExpiredTotal, _ = meter.Int64Counter(
		"platecost.demo.sessions.expired.total",
		metric.WithDescription("Total number of demo sessions expired or evicted"),
		metric.WithUnit("{session}"),
	)

	m.DemoSessionsRejectedTotal, _ = meter.Int64Counter(
		"platecost.demo.sessions.rejected.total",
		metric.WithDescription("Total number of demo session creations rejected at capacity"),
		metric.WithUnit("{session}"),
	)

	m.RequestsTotal, _ = meter.Int64Counter(
		"platecost.http.requests.total",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"platecost.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
