package scope

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/logger"
)

// Lifespan orders scopes from widest to narrowest.
type Lifespan int

const (
	// Run lives for the whole engine run.
	Run Lifespan = iota
	// Node lives while one containment node executes.
	Node
	// Execution lives for exactly one unit execution, including each repetition.
	Execution
)

func (l Lifespan) String() string {
	switch l {
	case Run:
		return "run"
	case Node:
		return "node"
	case Execution:
		return "execution"
	}
	return fmt.Sprintf("lifespan(%d)", int(l))
}

// ParseLifespan converts a configuration value to a Lifespan.
func ParseLifespan(s string) (Lifespan, error) {
	switch s {
	case "run", "":
		return Run, nil
	case "node":
		return Node, nil
	case "execution":
		return Execution, nil
	}
	return Run, errors.Configuration("unknown lifespan %q", s)
}

// Handle identifies one live scope.
type Handle struct {
	Lifespan Lifespan
	ID       string
}

func (h Handle) String() string { return h.Lifespan.String() + ":" + h.ID }

// Identifier names a store inside a scope.
type Identifier string

type closer interface {
	close(ctx context.Context) error
	valueType() reflect.Type
}

// Registry owns every store of every live scope.
type Registry struct {
	mu     sync.Mutex
	scopes map[Handle]*entries
	log    *logger.Logger
}

type entries struct {
	order  []Identifier
	stores map[Identifier]closer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		scopes: make(map[Handle]*entries),
		log:    logger.Get("scope"),
	}
}

// GetOrCreate returns the store registered under (handle, id), creating it
// with init on first access. Later calls return the same store and never call
// init again. Requesting an existing store with a different value type fails.
func GetOrCreate[T any](reg *Registry, handle Handle, id Identifier, init func() T) (*Store[T], error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	es, ok := reg.scopes[handle]
	if !ok {
		es = &entries{stores: make(map[Identifier]closer)}
		reg.scopes[handle] = es
	}
	if existing, ok := es.stores[id]; ok {
		st, ok := existing.(*Store[T])
		if !ok {
			return nil, errors.StoreTypeMismatch(string(id), reflect.TypeFor[T]().String(), existing.valueType().String())
		}
		return st, nil
	}

	var zero T
	if init != nil {
		zero = init()
	}
	st := &Store[T]{handle: handle, id: id, value: zero}
	es.stores[id] = st
	es.order = append(es.order, id)

	reg.log.Debug("store created", logger.Fields(
		logger.FieldScope, handle.String(),
		logger.FieldKey, string(id),
	))
	return st, nil
}

// Lookup returns the store under (handle, id) if it exists.
func Lookup[T any](reg *Registry, handle Handle, id Identifier) (*Store[T], bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	es, ok := reg.scopes[handle]
	if !ok {
		return nil, false
	}
	st, ok := es.stores[id].(*Store[T])
	return st, ok
}

// Active reports whether any store is registered for handle.
func (r *Registry) Active(handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.scopes[handle]
	return ok
}

// End removes every store of handle and fires their teardowns, newest store
// first. Every teardown runs even if an earlier one fails. Ending an unknown
// or already ended handle is a no-op.
func (r *Registry) End(ctx context.Context, handle Handle) error {
	r.mu.Lock()
	es, ok := r.scopes[handle]
	delete(r.scopes, handle)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	var causes []error
	for i := len(es.order) - 1; i >= 0; i-- {
		if err := es.stores[es.order[i]].close(ctx); err != nil {
			causes = append(causes, err)
		}
	}

	r.log.Debug("scope ended", logger.Fields(
		logger.FieldScope, handle.String(),
		logger.FieldCount, len(es.order),
	))
	if e := errors.CloseFailed(handle.String(), causes); e != nil {
		return e
	}
	return nil
}

// Store is one lifespan-bound value with an optional teardown callback.
type Store[T any] struct {
	handle Handle
	id     Identifier

	mu      sync.Mutex
	value   T
	onClose func(context.Context, T) error
	closed  bool
	once    sync.Once
}

// Handle returns the scope the store belongs to.
func (s *Store[T]) Handle() Handle { return s.handle }

// Identifier returns the store's name within its scope.
func (s *Store[T]) Identifier() Identifier { return s.id }

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Update replaces the value with fn(current) under the store lock.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	return s.value
}

// OnClose installs the teardown callback. A later call replaces the earlier
// callback; only one runs.
func (s *Store[T]) OnClose(fn func(ctx context.Context, v T) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

// Closed reports whether the teardown has fired.
func (s *Store[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store[T]) close(ctx context.Context) (err error) {
	s.once.Do(func() {
		s.mu.Lock()
		fn, v := s.onClose, s.value
		s.closed = true
		s.mu.Unlock()
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				err = errors.PanicError(r)
			}
		}()
		err = fn(ctx, v)
	})
	return err
}

func (s *Store[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }
