package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/scopekit/lifecycle"
)

// Signal is one notification received by an AwareResource.
type Signal struct {
	Description lifecycle.Description
	Outcome     lifecycle.Outcome
	// ResourceID is the resource identity at the time of the signal.
	ResourceID string
}

// AwareResource is a fake resource implementing lifecycle.TestAware.
type AwareResource struct {
	*Resource

	mu          sync.Mutex
	befores     []Signal
	afters      []Signal
	beforeErr   error
	afterErr    error
	panicBefore any
}

var _ lifecycle.TestAware = (*AwareResource)(nil)

// NewAwareResource creates a fake test-aware resource.
func NewAwareResource(name string) *AwareResource {
	return &AwareResource{Resource: NewResource(name)}
}

// WithRecorder records start/stop and "<name>.before:<label>" /
// "<name>.after:<label>:<status>" events into rec.
func (a *AwareResource) WithRecorder(rec *Recorder) *AwareResource {
	a.Resource.WithRecorder(rec)
	return a
}

// FailBefore makes every BeforeTest return err.
func (a *AwareResource) FailBefore(err error) *AwareResource {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.beforeErr = err
	return a
}

// FailAfter makes every AfterTest return err.
func (a *AwareResource) FailAfter(err error) *AwareResource {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.afterErr = err
	return a
}

// PanicBefore makes every BeforeTest panic with v.
func (a *AwareResource) PanicBefore(v any) *AwareResource {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicBefore = v
	return a
}

// BeforeTest implements lifecycle.TestAware.
func (a *AwareResource) BeforeTest(_ context.Context, desc lifecycle.Description) error {
	id := a.ID()
	a.rec.Add(a.name + ".before:" + desc.Label())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.befores = append(a.befores, Signal{Description: desc, ResourceID: id})
	if a.panicBefore != nil {
		panic(a.panicBefore)
	}
	return a.beforeErr
}

// AfterTest implements lifecycle.TestAware.
func (a *AwareResource) AfterTest(_ context.Context, desc lifecycle.Description, outcome lifecycle.Outcome) error {
	id := a.ID()
	a.rec.Add(a.name + ".after:" + desc.Label() + ":" + outcome.Status.String())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.afters = append(a.afters, Signal{Description: desc, Outcome: outcome, ResourceID: id})
	return a.afterErr
}

// Befores returns every BeforeTest signal received.
func (a *AwareResource) Befores() []Signal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Signal(nil), a.befores...)
}

// Afters returns every AfterTest signal received.
func (a *AwareResource) Afters() []Signal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Signal(nil), a.afters...)
}

// LastAfter returns the most recent AfterTest signal.
func (a *AwareResource) LastAfter() (Signal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.afters) == 0 {
		return Signal{}, false
	}
	return a.afters[len(a.afters)-1], true
}
