package suite

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/kbukum/scopekit/declare"
	"github.com/kbukum/scopekit/skip"
)

type kind int

const (
	containerKind kind = iota
	unitKind
)

// Body is the code of one test unit.
type Body func(t *testing.T, instance any) error

// Node is one element of the containment tree.
type Node struct {
	kind     kind
	name     string
	typ      *declare.Type
	marker   *skip.Marker
	newInst  func() any
	body     Body
	parallel bool
	tries    int

	parent   *Node
	children []*Node
	hooks    []Hook
}

// Item is accepted wherever a node is built: an Option or a child *Node.
type Item interface {
	applyTo(n *Node)
}

// Option configures a node.
type Option func(n *Node)

func (o Option) applyTo(n *Node) { o(n) }

func (n *Node) applyTo(parent *Node) {
	parent.children = append(parent.children, n)
}

// Class creates a container node that owns the declarations of typ.
func Class(name string, typ *declare.Type, items ...Item) *Node {
	n := &Node{kind: containerKind, name: name, typ: typ, tries: 1}
	for _, it := range items {
		it.applyTo(n)
	}
	return n
}

// Group creates a container node without declarations.
func Group(name string, items ...Item) *Node {
	return Class(name, nil, items...)
}

// Test creates a unit node. The body receives a fresh instance of I for
// every try, built by the nearest enclosing WithInstance factory.
func Test[I any](name string, body func(t *testing.T, instance I) error, opts ...Item) *Node {
	n := &Node{kind: unitKind, name: name, tries: 1}
	n.body = func(t *testing.T, instance any) error {
		var typed I
		if instance != nil {
			v, ok := instance.(I)
			if !ok {
				return fmt.Errorf("test instance %T is not %s", instance, reflect.TypeFor[I]())
			}
			typed = v
		}
		return body(t, typed)
	}
	for _, it := range opts {
		it.applyTo(n)
	}
	return n
}

// WithMarker attaches a scope marker.
func WithMarker(m skip.Marker) Option {
	return func(n *Node) { n.marker = &m }
}

// WithInstance sets the factory that builds the test instance for every try
// of the units below the node.
func WithInstance(factory func() any) Option {
	return func(n *Node) { n.newInst = factory }
}

// Parallel runs the node in parallel with its siblings.
func Parallel() Option {
	return func(n *Node) { n.parallel = true }
}

// Tries repeats a unit up to count times, stopping at the first failure.
func Tries(count int) Option {
	return func(n *Node) {
		if count > 0 {
			n.tries = count
		}
	}
}

// WithHooks attaches hooks that only apply to the node and, for around-unit
// hooks, to the units below it.
func WithHooks(hooks ...Hook) Option {
	return func(n *Node) { n.hooks = append(n.hooks, hooks...) }
}

// BeforeAll runs fn when the container is entered.
func BeforeAll(fn func(ctx context.Context, cc *ContainerContext) error) Option {
	return WithHooks(&userContainerHook{before: fn})
}

// AfterAll runs fn when the container is left.
func AfterAll(fn func(ctx context.Context, cc *ContainerContext) error) Option {
	return WithHooks(&userContainerHook{after: fn})
}

// BeforeEach runs fn before every try of every unit below the node.
func BeforeEach(fn func(ctx context.Context, uc *UnitContext) error) Option {
	return WithHooks(&userUnitHook{before: fn})
}

// AfterEach runs fn after every try of every unit below the node.
func AfterEach(fn func(ctx context.Context, uc *UnitContext) error) Option {
	return WithHooks(&userUnitHook{after: fn})
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Type returns the declaration owner of a class, or nil.
func (n *Node) Type() *declare.Type { return n.typ }

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children.
func (n *Node) Children() []*Node { return n.children }

// IsContainer reports whether the node is a class or group.
func (n *Node) IsContainer() bool { return n.kind == containerKind }

// Label implements skip.Node.
func (n *Node) Label() string { return n.name }

// LocalMarker implements skip.Node.
func (n *Node) LocalMarker() (skip.Marker, bool) {
	if n.marker == nil {
		return skip.Marker{}, false
	}
	return *n.marker, true
}

// Enclosing implements skip.Node.
func (n *Node) Enclosing() skip.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Container returns the nearest container at or above n.
func (n *Node) Container() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.IsContainer() {
			return cur
		}
	}
	return nil
}

func (n *Node) newInstance() any {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.newInst != nil {
			return cur.newInst()
		}
	}
	return nil
}

// attach links parents and checks the tree shape.
func (n *Node) attach(parent *Node) error {
	n.parent = parent
	if n.name == "" {
		return fmt.Errorf("node without a name below %q", parentName(parent))
	}
	if n.kind == unitKind {
		if len(n.children) > 0 {
			return fmt.Errorf("test %q cannot contain other nodes", n.name)
		}
		if n.body == nil {
			return fmt.Errorf("test %q has no body", n.name)
		}
	}
	for _, c := range n.children {
		if err := c.attach(n); err != nil {
			return err
		}
	}
	return nil
}

func parentName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.name
}
