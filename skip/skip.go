// Package skip decides whether a whole scope is skipped because an external
// capability it depends on is unavailable.
package skip

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/logger"
)

// DefaultCapability is probed when a marker names none.
const DefaultCapability = "docker"

// Marker is the scope marker attached to a containment node.
type Marker struct {
	// SkipWhenUnavailable skips the scope when the capability cannot be reached.
	SkipWhenUnavailable bool
	// Capability names the probe to consult. Empty means DefaultCapability.
	Capability string
}

func (m Marker) capability() string {
	if m.Capability == "" {
		return DefaultCapability
	}
	return m.Capability
}

// Node is a containment node that may carry a marker.
type Node interface {
	Label() string
	// LocalMarker returns the marker attached directly to this node.
	LocalMarker() (Marker, bool)
	// Enclosing returns the parent node, or nil at the root.
	Enclosing() Node
}

// Probe reports whether a capability is reachable. Any error means unavailable.
type Probe interface {
	Available(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

// Available calls f.
func (f ProbeFunc) Available(ctx context.Context) error { return f(ctx) }

// Decision is the result of one evaluation.
type Decision struct {
	Skip   bool
	Reason string
	// Cause is the probe failure behind a skip.
	Cause error
}

// Proceed is the decision to run the scope.
func Proceed() Decision { return Decision{} }

// Nearest returns the marker of node or of its nearest ancestor carrying one.
func Nearest(node Node) (Marker, bool) {
	for n := node; n != nil; n = n.Enclosing() {
		if m, ok := n.LocalMarker(); ok {
			return m, true
		}
	}
	return Marker{}, false
}

// Evaluator resolves markers and consults probes by capability name.
type Evaluator struct {
	mu     sync.RWMutex
	probes map[string]Probe
	log    *logger.Logger
}

// NewEvaluator creates an evaluator with no probes registered.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		probes: make(map[string]Probe),
		log:    logger.Get("skip"),
	}
}

// Register makes p the probe for capability.
func (e *Evaluator) Register(capability string, p Probe) *Evaluator {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probes[capability] = p
	return e
}

// Evaluate decides whether the scope of node is skipped. A node without a
// marker anywhere up its ancestry is a configuration error. When the marker
// asks for it, the capability's probe is called exactly once; any failure of
// the probe, including a panic or a missing probe, skips the scope.
func (e *Evaluator) Evaluate(ctx context.Context, node Node) (Decision, error) {
	m, ok := Nearest(node)
	if !ok {
		label := ""
		if node != nil {
			label = node.Label()
		}
		return Decision{}, errors.MarkerNotFound(label)
	}
	if !m.SkipWhenUnavailable {
		return Proceed(), nil
	}

	capability := m.capability()
	e.mu.RLock()
	p := e.probes[capability]
	e.mu.RUnlock()

	var err error
	if p == nil {
		err = fmt.Errorf("no probe registered for %s", capability)
	} else {
		err = probe(ctx, p)
	}
	if err == nil {
		return Proceed(), nil
	}

	d := Decision{
		Skip:   true,
		Reason: fmt.Sprintf("skip_when_unavailable is true and %s is not available", capability),
		Cause:  errors.Unavailable(capability, err),
	}
	e.log.Info("scope skipped", logger.Fields(
		logger.FieldNode, node.Label(),
		logger.FieldCapability, capability,
		logger.FieldError, err.Error(),
	))
	return d, nil
}

func probe(ctx context.Context, p Probe) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.PanicError(r)
		}
	}()
	return p.Available(ctx)
}
