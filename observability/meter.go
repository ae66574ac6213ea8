package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/scopekit/logger"
)

// Instrument names.
const (
	MetricResourceStarts   = "scopekit.resource.starts"
	MetricResourceStops    = "scopekit.resource.stops"
	MetricResourceFailures = "scopekit.resource.failures"
	MetricStartDuration    = "scopekit.resource.start.duration"
	MetricUnitOutcomes     = "scopekit.unit.outcomes"
	MetricScopeSkips       = "scopekit.scope.skips"
	MetricSignalFailures   = "scopekit.signal.failures"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Insecure       bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The provider should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns the scopekit meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the lifecycle instruments.
type Metrics struct {
	starts         metric.Int64Counter
	stops          metric.Int64Counter
	failures       metric.Int64Counter
	startDuration  metric.Float64Histogram
	unitOutcomes   metric.Int64Counter
	scopeSkips     metric.Int64Counter
	signalFailures metric.Int64Counter
}

// NewMetrics creates the lifecycle instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.starts, MetricResourceStarts, "Resources started"},
		{&m.stops, MetricResourceStops, "Resources stopped"},
		{&m.failures, MetricResourceFailures, "Resource start and stop failures"},
		{&m.unitOutcomes, MetricUnitOutcomes, "Unit executions by outcome"},
		{&m.scopeSkips, MetricScopeSkips, "Scopes skipped because a capability was unavailable"},
		{&m.signalFailures, MetricSignalFailures, "Rejected test-aware notifications"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram(MetricStartDuration,
		metric.WithDescription("Duration of resource starts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricStartDuration, err)
	}
	m.startDuration = hist
	return m, nil
}

// Started records one resource start attempt.
func (m *Metrics) Started(ctx context.Context, key string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String(AttrKey, key))
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrKey, key),
			attribute.String("phase", "start"),
		))
		return
	}
	m.starts.Add(ctx, 1, attrs)
	m.startDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// Stopped records one resource stop.
func (m *Metrics) Stopped(ctx context.Context, key string, err error) {
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrKey, key),
			attribute.String("phase", "stop"),
		))
	}
	m.stops.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrKey, key)))
}

// RecordOutcome records how one unit execution ended.
func (m *Metrics) RecordOutcome(ctx context.Context, status string) {
	m.unitOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, status)))
}

// RecordSkip records a skipped scope.
func (m *Metrics) RecordSkip(ctx context.Context, capability string) {
	m.scopeSkips.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrCapability, capability)))
}

// RecordSignalFailure records a rejected before or after notification.
func (m *Metrics) RecordSignalFailure(ctx context.Context, phase string) {
	m.signalFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}
