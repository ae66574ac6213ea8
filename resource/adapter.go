package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scopekit/declare"
	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
)

// State is the runtime state of an Adapter.
type State int

const (
	NotStarted State = iota
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Adapter wraps one declared resource with a stable key. It is started at
// most once and never restarted; a new scope entry gets a new adapter.
type Adapter struct {
	decl declare.Declaration

	mu    sync.Mutex
	state State
}

// NewAdapter creates a not yet started adapter for decl.
func NewAdapter(decl declare.Declaration) *Adapter {
	return &Adapter{decl: decl}
}

// Key returns the declaration key.
func (a *Adapter) Key() string { return a.decl.Key }

// Name returns the declaration name.
func (a *Adapter) Name() string { return a.decl.Name }

// Declaration returns the declaration the adapter was built from.
func (a *Adapter) Declaration() declare.Declaration { return a.decl }

// Resource returns the underlying resource.
func (a *Adapter) Resource() lifecycle.Startable { return a.decl.Handle }

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Start starts the resource. A second call fails with ALREADY_STARTED; a
// failed or panicking start leaves the adapter stopped.
func (a *Adapter) Start(ctx context.Context) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != NotStarted {
		return errors.AlreadyStarted(a.decl.Key)
	}
	defer func() {
		if r := recover(); r != nil {
			a.state = Stopped
			err = errors.StartFailed(a.decl.Key, errors.PanicError(r))
		}
	}()
	if err := a.decl.Handle.Start(ctx); err != nil {
		a.state = Stopped
		return errors.StartFailed(a.decl.Key, err)
	}
	a.state = Started
	return nil
}

// Close stops a started resource. Closing a never started or already
// stopped adapter is a no-op.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Started {
		a.state = Stopped
		return nil
	}
	a.state = Stopped
	if err := a.decl.Handle.Stop(ctx); err != nil {
		return fmt.Errorf("stop %s: %w", a.decl.Key, err)
	}
	return nil
}

// Starter returns the factory that starts decl in a new adapter.
func Starter(decl declare.Declaration) Factory {
	return func(ctx context.Context) (*Adapter, error) {
		a := NewAdapter(decl)
		if err := a.Start(ctx); err != nil {
			return nil, err
		}
		return a, nil
	}
}
