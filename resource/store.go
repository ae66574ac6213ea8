package resource

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/scope"
)

// Factory produces a started adapter for a key that is not yet in the store.
type Factory func(ctx context.Context) (*Adapter, error)

// Observer is notified about every start and stop the store performs.
type Observer interface {
	Started(ctx context.Context, key string, elapsed time.Duration, err error)
	Stopped(ctx context.Context, key string, err error)
}

// Option configures a Store when it is first opened.
type Option func(*Store)

// WithStopTimeout bounds each resource's Stop during teardown.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Store) { s.stopTimeout = d }
}

// WithObserver reports starts and stops to o.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store is the scoped collection of started adapters, ordered by insertion.
type Store struct {
	handle scope.Handle
	id     scope.Identifier
	log    *logger.Logger

	stopTimeout time.Duration
	observer    Observer

	flight singleflight.Group

	mu       sync.Mutex
	order    []string
	adapters map[string]*Adapter
	closed   bool
}

// Open returns the resource store registered under (handle, identifier),
// creating it on first use. The store closes every adapter when the handle's
// scope ends. Options only apply when the store is created.
func Open(ctx context.Context, reg *scope.Registry, handle scope.Handle, identifier scope.Identifier, opts ...Option) (*Store, error) {
	created := false
	st, err := scope.GetOrCreate(reg, handle, identifier, func() *Store {
		created = true
		s := &Store{
			handle:   handle,
			id:       identifier,
			adapters: make(map[string]*Adapter),
			log: logger.Get("resource").WithFields(logger.Fields(
				logger.FieldScope, handle.String(),
				logger.FieldLifespan, handle.Lifespan.String(),
			)),
		}
		for _, opt := range opts {
			opt(s)
		}
		return s
	})
	if err != nil {
		return nil, err
	}
	if created {
		st.OnClose(func(ctx context.Context, s *Store) error { return s.closeAll(ctx) })
	}
	return st.Get(), nil
}

// Handle returns the scope the store is bound to.
func (s *Store) Handle() scope.Handle { return s.handle }

// GetOrStart returns the adapter for key, invoking factory only if the key is
// absent. Concurrent callers for the same key share a single factory call. A
// failed factory inserts nothing and its error is returned to every waiter.
func (s *Store) GetOrStart(ctx context.Context, key string, factory Factory) (*Adapter, error) {
	if a, ok := s.Get(key); ok {
		return a, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		if a, ok := s.Get(key); ok {
			return a, nil
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, errors.Configuration("resource store %s is already closed", s.handle)
		}

		begin := time.Now()
		a, err := factory(ctx)
		if s.observer != nil {
			s.observer.Started(ctx, key, time.Since(begin), err)
		}
		if err != nil {
			s.log.Warn("resource failed to start", logger.MergeWithError(logger.Fields(logger.FieldKey, key), err))
			return nil, err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			e := errors.Configuration("resource store %s closed while %s was starting", s.handle, key)
			if cerr := s.closeOne(ctx, a); cerr != nil {
				e = e.WithCause(cerr)
			}
			return nil, e
		}
		s.adapters[key] = a
		s.order = append(s.order, key)
		s.mu.Unlock()

		s.log.Info("resource started", logger.Fields(
			logger.FieldKey, key,
			logger.FieldDuration, time.Since(begin).Milliseconds(),
		))
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Adapter), nil
}

// Get returns the adapter registered for key.
func (s *Store) Get(key string) (*Adapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.adapters[key]
	return a, ok
}

// Keys returns the registered keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Adapters returns the registered adapters in insertion order.
func (s *Store) Adapters() []*Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Adapter, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.adapters[k])
	}
	return out
}

// Len returns the number of registered adapters.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// closeAll closes every adapter, newest first, attempting all of them before
// reporting the combined failure.
func (s *Store) closeAll(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	adapters := make([]*Adapter, 0, len(s.order))
	for _, k := range s.order {
		adapters = append(adapters, s.adapters[k])
	}
	s.mu.Unlock()

	var causes []error
	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := s.closeOne(ctx, a); err != nil {
			causes = append(causes, err)
		}
	}

	s.log.Info("resources closed", logger.Fields(
		logger.FieldCount, len(adapters),
		"failed", len(causes),
	))
	if e := errors.CloseFailed(s.handle.String(), causes); e != nil {
		return e
	}
	return nil
}

func (s *Store) closeOne(ctx context.Context, a *Adapter) (err error) {
	if s.stopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stopTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.PanicError(r)
		}
		if s.observer != nil {
			s.observer.Stopped(ctx, a.Key(), err)
		}
		if err != nil {
			s.log.Warn("resource failed to stop", logger.MergeWithError(logger.Fields(logger.FieldKey, a.Key()), err))
		}
	}()
	return a.Close(ctx)
}
