package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/scopekit/lifecycle"
)

// Resource is a fake Startable. Every successful Start assigns a fresh ID.
type Resource struct {
	name string
	rec  *Recorder

	mu         sync.Mutex
	id         string
	running    bool
	starts     int
	stops      int
	startErr   error
	startPanic any
	stopErr    error
	startDelay time.Duration
}

var _ lifecycle.Startable = (*Resource)(nil)

// NewResource creates a fake resource.
func NewResource(name string) *Resource {
	return &Resource{name: name}
}

// WithRecorder records "<name>.start" and "<name>.stop" events into rec.
func (r *Resource) WithRecorder(rec *Recorder) *Resource {
	r.rec = rec
	return r
}

// FailStart makes every Start return err.
func (r *Resource) FailStart(err error) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
	return r
}

// PanicStart makes every Start panic with v.
func (r *Resource) PanicStart(v any) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startPanic = v
	return r
}

// FailStop makes every Stop return err.
func (r *Resource) FailStop(err error) *Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopErr = err
	return r
}

// WithStartDelay makes Start block for d, widening race windows in tests.
func (r *Resource) WithStartDelay(d time.Duration) *Resource {
	r.startDelay = d
	return r
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Start implements lifecycle.Startable.
func (r *Resource) Start(ctx context.Context) error {
	if r.startDelay > 0 {
		select {
		case <-time.After(r.startDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.starts++
	r.rec.Add(r.name + ".start")
	if r.startPanic != nil {
		panic(r.startPanic)
	}
	if r.startErr != nil {
		return r.startErr
	}
	if r.running {
		return fmt.Errorf("resource %s already running", r.name)
	}
	r.id = uuid.NewString()
	r.running = true
	return nil
}

// Stop implements lifecycle.Startable.
func (r *Resource) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stops++
	r.rec.Add(r.name + ".stop")
	r.running = false
	return r.stopErr
}

// ID returns the identity assigned by the last successful Start.
func (r *Resource) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Running reports whether the resource is started and not yet stopped.
func (r *Resource) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Starts returns how many times Start was called.
func (r *Resource) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns how many times Stop was called.
func (r *Resource) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}
