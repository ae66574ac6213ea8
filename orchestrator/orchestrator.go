package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/scopekit/config"
	"github.com/kbukum/scopekit/declare"
	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/observability"
	"github.com/kbukum/scopekit/probe/docker"
	"github.com/kbukum/scopekit/resource"
	"github.com/kbukum/scopekit/scope"
	"github.com/kbukum/scopekit/signal"
	"github.com/kbukum/scopekit/skip"
	"github.com/kbukum/scopekit/suite"
	"github.com/kbukum/scopekit/version"
)

// Proximity places the orchestrator outside every user hook, so resources
// are live for all user setup and teardown code.
const Proximity = suite.UserProximity - 1

const (
	sharedStore  scope.Identifier = "scopekit.shared"
	perUnitStore scope.Identifier = "scopekit.per_unit"
	nodeTargets  scope.Identifier = "scopekit.node_targets"
)

// Orchestrator implements the suite hooks that manage resources.
type Orchestrator struct {
	cfg        *config.Config
	lifespan   scope.Lifespan
	evaluator  *skip.Evaluator
	dispatcher *signal.Dispatcher
	tracer     trace.Tracer
	metrics    *observability.Metrics
	log        *logger.Logger
}

var (
	_ suite.ContainerHook  = (*Orchestrator)(nil)
	_ suite.AroundUnitHook = (*Orchestrator)(nil)
	_ suite.SkipHook       = (*Orchestrator)(nil)
)

// New creates an orchestrator. Without options it uses the default
// configuration, the global OpenTelemetry providers and a Docker probe for
// the "docker" capability.
func New(opts ...Option) (*Orchestrator, error) {
	o := &options{probes: make(map[string]skip.Probe)}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.ApplyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := o.log
	if log == nil {
		log = logger.Get("orchestrator")
	}

	evaluator := skip.NewEvaluator()
	if _, ok := o.probes[docker.Capability]; !ok {
		evaluator.Register(docker.Capability, docker.New(cfg.Docker))
	}
	for capability, p := range o.probes {
		evaluator.Register(capability, p)
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = observability.Tracer()
	}
	metrics := o.metrics
	if metrics == nil {
		m, err := observability.NewMetrics(observability.Meter())
		if err != nil {
			return nil, errors.Internal(err)
		}
		metrics = m
	}

	orch := &Orchestrator{
		cfg:        cfg,
		lifespan:   cfg.Resources.Lifespan(),
		evaluator:  evaluator,
		dispatcher: signal.NewDispatcher(log),
		tracer:     tracer,
		metrics:    metrics,
		log:        log,
	}
	log.Debug("orchestrator created", mergeFields(version.Get().Fields(), logger.Fields(
		logger.FieldLifespan, orch.lifespan.String(),
	)))
	return orch, nil
}

// Proximity implements suite.Hook.
func (o *Orchestrator) Proximity() int { return Proximity }

// ShouldSkip implements suite.SkipHook.
func (o *Orchestrator) ShouldSkip(ctx context.Context, node *suite.Node) (skip.Decision, error) {
	d, err := o.evaluator.Evaluate(ctx, node)
	if err != nil {
		return d, err
	}
	if d.Skip {
		m, _ := skip.Nearest(node)
		capability := m.Capability
		if capability == "" {
			capability = skip.DefaultCapability
		}
		o.metrics.RecordSkip(ctx, capability)
	}
	return d, nil
}

// BeforeContainer implements suite.ContainerHook. It starts the shared
// declarations of the class and sends BeforeTest to the test-aware ones.
func (o *Orchestrator) BeforeContainer(ctx context.Context, cc *suite.ContainerContext) (err error) {
	ctx, span := o.tracer.Start(ctx, observability.SpanContainerEnter, trace.WithAttributes(
		attribute.String(observability.AttrNode, cc.Path),
		attribute.String(observability.AttrLifespan, o.lifespan.String()),
	))
	defer func() { observability.EndSpan(span, err) }()

	typ := cc.Node.Type()
	if typ == nil {
		return errors.Configuration("resource orchestration is only supported for classes, %s has no declarations type", cc.Path)
	}

	decls, err := declare.Scan(declare.KindShared, typ, nil)
	if err != nil {
		return err
	}

	handle := cc.RunHandle
	if o.lifespan == scope.Node {
		handle = cc.Handle
	}
	store, err := resource.Open(ctx, cc.Registry, handle, sharedStore, o.storeOptions()...)
	if err != nil {
		return err
	}
	adapters, err := o.startAll(ctx, store, decls)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int(observability.AttrResources, len(adapters)))

	targets := signal.Collect(adapters)
	st, err := scope.GetOrCreate(cc.Registry, cc.Handle, nodeTargets, func() []signal.Target { return nil })
	if err != nil {
		return err
	}
	st.Update(func([]signal.Target) []signal.Target { return targets })

	o.log.Debug("container entered", logger.Fields(
		logger.FieldNode, cc.Path,
		logger.FieldCount, len(adapters),
		"test_aware", len(targets),
	))

	desc := lifecycle.NewDescription(cc.Node.Name(), cc.Path)
	if err := o.dispatcher.Before(ctx, targets, desc); err != nil {
		o.metrics.RecordSignalFailure(ctx, "before")
		return err
	}
	return nil
}

// AfterContainer implements suite.ContainerHook. It sends a successful
// AfterTest to the test-aware shared resources recorded on entry. The
// resources themselves are stopped when their scope ends.
func (o *Orchestrator) AfterContainer(ctx context.Context, cc *suite.ContainerContext) (err error) {
	ctx, span := o.tracer.Start(ctx, observability.SpanContainerExit, trace.WithAttributes(
		attribute.String(observability.AttrNode, cc.Path),
	))
	defer func() { observability.EndSpan(span, err) }()

	st, ok := scope.Lookup[[]signal.Target](cc.Registry, cc.Handle, nodeTargets)
	if !ok {
		return nil
	}
	desc := lifecycle.NewDescription(cc.Node.Name(), cc.Path)
	if err := o.dispatcher.After(ctx, st.Get(), desc, lifecycle.Success()); err != nil {
		o.metrics.RecordSignalFailure(ctx, "after")
		return err
	}
	return nil
}

// AroundUnit implements suite.AroundUnitHook for one try of a unit.
func (o *Orchestrator) AroundUnit(ctx context.Context, uc *suite.UnitContext, next func() suite.Result) (res suite.Result) {
	ctx, span := o.tracer.Start(ctx, observability.SpanUnit, trace.WithAttributes(
		attribute.String(observability.AttrNode, uc.Path),
		attribute.String(observability.AttrExecution, uc.Handle.ID),
		attribute.Int(observability.AttrTry, uc.Try),
	))
	defer func() {
		span.SetAttributes(attribute.String(observability.AttrOutcome, OutcomeOf(res).Status.String()))
		var err error
		if res.Failed() {
			err = res.Err
		}
		observability.EndSpan(span, err)
	}()

	targets, err := o.enterUnit(ctx, uc)
	if err != nil {
		o.metrics.RecordOutcome(ctx, lifecycle.Failed.String())
		return suite.Fail(err)
	}

	desc := lifecycle.NewDescription(uc.Label, uc.Path)
	if err := o.dispatcher.Before(ctx, targets, desc); err != nil {
		o.metrics.RecordSignalFailure(ctx, "before")
		res = suite.Fail(err)
	} else {
		res = next()
	}

	outcome := OutcomeOf(res)
	if err := o.dispatcher.After(ctx, targets, desc, outcome); err != nil {
		o.metrics.RecordSignalFailure(ctx, "after")
		if !res.Failed() {
			res = suite.Fail(err)
			outcome = OutcomeOf(res)
		}
	}
	o.metrics.RecordOutcome(ctx, outcome.Status.String())
	return res
}

// enterUnit starts the per-unit declarations of the try on its execution
// scope and returns the test-aware ones.
func (o *Orchestrator) enterUnit(ctx context.Context, uc *suite.UnitContext) ([]signal.Target, error) {
	if uc.Container == nil || uc.Container.Type() == nil {
		return nil, errors.Configuration("resource orchestration is only supported for classes, %s has no enclosing class", uc.Path)
	}
	typ := uc.Container.Type()
	if lifecycle.IsNil(uc.Instance) && !typ.Declares(declare.KindPerUnit) {
		return nil, nil
	}

	decls, err := declare.Scan(declare.KindPerUnit, typ, uc.Instance)
	if err != nil {
		return nil, err
	}
	store, err := resource.Open(ctx, uc.Registry, uc.Handle, perUnitStore, o.storeOptions()...)
	if err != nil {
		return nil, err
	}
	adapters, err := o.startAll(ctx, store, decls)
	if err != nil {
		return nil, err
	}
	return signal.Collect(adapters), nil
}

// startAll starts decls in order on store. On failure the already started
// adapters stay registered and are stopped with the store.
func (o *Orchestrator) startAll(ctx context.Context, store *resource.Store, decls []declare.Declaration) ([]*resource.Adapter, error) {
	adapters := make([]*resource.Adapter, 0, len(decls))
	for _, d := range decls {
		a, err := store.GetOrStart(ctx, d.Key, resource.Starter(d))
		if err != nil {
			return adapters, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func (o *Orchestrator) storeOptions() []resource.Option {
	return []resource.Option{
		resource.WithStopTimeout(o.cfg.Resources.StopTimeout),
		resource.WithObserver(o.metrics),
	}
}

// OutcomeOf maps a host result to what test-aware resources receive.
func OutcomeOf(res suite.Result) lifecycle.Outcome {
	switch res.Status {
	case suite.StatusFailed:
		return lifecycle.Failure(res.Err)
	case suite.StatusAborted:
		return lifecycle.Abort()
	}
	return lifecycle.Success()
}

func mergeFields(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
