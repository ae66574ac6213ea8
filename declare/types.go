package declare

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/scopekit/lifecycle"
)

// Kind says whether a declaration is bound to its type or to a test instance.
type Kind int

const (
	// KindShared declarations are type-bound and started once per shared scope.
	KindShared Kind = iota
	// KindPerUnit declarations are instance-bound and started for every execution.
	KindPerUnit
)

func (k Kind) String() string {
	switch k {
	case KindShared:
		return "shared"
	case KindPerUnit:
		return "per-unit"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Declaration is one scanned resource.
type Declaration struct {
	Kind Kind
	// Key is stable across scans: declaring type name + "." + Name.
	Key string
	// Name is the declaration name as registered.
	Name string
	// Owner is the name of the declaring type.
	Owner string
	// Handle is the resource read at scan time.
	Handle lifecycle.Startable
}

func (d Declaration) String() string { return d.Key }

type accessor func(instance any) (any, error)

type field struct {
	kind     Kind
	name     string
	declared reflect.Type
	read     accessor
}

// Type is the explicit stand-in for a test class: a named owner of resource
// declarations with an optional parent type.
type Type struct {
	name   string
	parent *Type

	mu     sync.RWMutex
	fields []field
}

// NewType creates an empty declaration owner.
func NewType(name string) *Type {
	return &Type{name: name}
}

// Name returns the type name used as key prefix.
func (t *Type) Name() string { return t.name }

// Parent returns the type t extends, or nil.
func (t *Type) Parent() *Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.parent
}

// Extends makes t inherit the declarations of parent. Parent declarations are
// scanned before t's own.
func (t *Type) Extends(parent *Type) *Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = parent
	return t
}

// Names returns the names declared directly on t for kind, in declaration order.
func (t *Type) Names(kind Kind) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var names []string
	for _, f := range t.fields {
		if f.kind == kind {
			names = append(names, f.name)
		}
	}
	return names
}

// Declares reports whether t or any ancestor declares a resource of kind.
func (t *Type) Declares(kind Kind) bool {
	visited := make(map[*Type]struct{})
	for cur := t; cur != nil; cur = cur.Parent() {
		if _, ok := visited[cur]; ok {
			return false
		}
		visited[cur] = struct{}{}
		if len(cur.Names(kind)) > 0 {
			return true
		}
	}
	return false
}

func (t *Type) add(f field) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields = append(t.fields, f)
}

func (t *Type) snapshot() []field {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Shared declares a type-bound resource. get is evaluated on every scan, so it
// may return a value assigned after registration.
func Shared[T any](t *Type, name string, get func() T) *Type {
	var read accessor
	if get != nil {
		read = func(any) (any, error) { return get(), nil }
	}
	t.add(field{kind: KindShared, name: name, declared: reflect.TypeFor[T](), read: read})
	return t
}

// PerUnit declares an instance-bound resource read from the live test
// instance of type I.
func PerUnit[I any, T any](t *Type, name string, get func(instance I) T) *Type {
	var read accessor
	if get != nil {
		read = func(instance any) (any, error) {
			typed, ok := instance.(I)
			if !ok {
				return nil, fmt.Errorf("instance of type %T is not %s", instance, reflect.TypeFor[I]())
			}
			return get(typed), nil
		}
	}
	t.add(field{kind: KindPerUnit, name: name, declared: reflect.TypeFor[T](), read: read})
	return t
}
