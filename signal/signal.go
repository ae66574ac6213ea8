// Package signal delivers before/after test notifications to resources that
// implement lifecycle.TestAware.
package signal

import (
	"context"
	"fmt"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/resource"
)

// Target is one test-aware resource and the key it was declared under.
type Target struct {
	Key      string
	Resource lifecycle.TestAware
}

// Collect returns the test-aware subset of adapters in declaration order.
// Resources without the capability are skipped.
func Collect(adapters []*resource.Adapter) []Target {
	var out []Target
	for _, a := range adapters {
		if ta, ok := a.Resource().(lifecycle.TestAware); ok {
			out = append(out, Target{Key: a.Key(), Resource: ta})
		}
	}
	return out
}

// Dispatcher sends ordered notifications. The zero value logs through the
// global logger.
type Dispatcher struct {
	log *logger.Logger
}

// NewDispatcher creates a dispatcher logging through log; nil uses the
// global logger.
func NewDispatcher(log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Get("signal")
	}
	return &Dispatcher{log: log}
}

// Before notifies every target, in order, that the test described by desc is
// about to run. A failing target never prevents the next from being notified;
// all failures are returned together.
func (d *Dispatcher) Before(ctx context.Context, targets []Target, desc lifecycle.Description) error {
	return d.dispatch("before", targets, desc, func(t Target) error {
		return t.Resource.BeforeTest(ctx, desc)
	})
}

// After notifies every target, in order, that the test described by desc
// ended with outcome.
func (d *Dispatcher) After(ctx context.Context, targets []Target, desc lifecycle.Description, outcome lifecycle.Outcome) error {
	return d.dispatch("after", targets, desc, func(t Target) error {
		return t.Resource.AfterTest(ctx, desc, outcome)
	})
}

func (d *Dispatcher) dispatch(phase string, targets []Target, desc lifecycle.Description, call func(Target) error) error {
	log := d.log
	if log == nil {
		log = logger.Get("signal")
	}

	var causes []error
	for _, t := range targets {
		if err := invoke(t, call); err != nil {
			log.Warn("test-aware resource rejected notification", logger.MergeWithError(logger.Fields(
				logger.FieldOperation, phase,
				logger.FieldKey, t.Key,
				logger.FieldNode, desc.Label(),
			), err))
			causes = append(causes, fmt.Errorf("%s: %w", t.Key, err))
		}
	}
	if e := errors.SignalFailed(phase, causes); e != nil {
		return e
	}
	return nil
}

func invoke(t Target, call func(Target) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.PanicError(r)
		}
	}()
	return call(t)
}
