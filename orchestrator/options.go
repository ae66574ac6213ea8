package orchestrator

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/scopekit/config"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/observability"
	"github.com/kbukum/scopekit/skip"
)

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	cfg     *config.Config
	probes  map[string]skip.Probe
	tracer  trace.Tracer
	metrics *observability.Metrics
	log     *logger.Logger
}

// WithConfig sets the configuration. Defaults are applied and the result is
// validated by New.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithProbe registers p for capability, replacing the Docker probe when
// capability is "docker".
func WithProbe(capability string, p skip.Probe) Option {
	return func(o *options) { o.probes[capability] = p }
}

// WithTracer sets the tracer spans are recorded with.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics sets the lifecycle instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}
