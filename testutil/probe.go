package testutil

import (
	"context"
	"sync"
)

// Probe is a scriptable availability probe.
type Probe struct {
	mu     sync.Mutex
	calls  int
	err    error
	panicV any
}

// AvailableProbe returns a probe that always reports availability.
func AvailableProbe() *Probe { return &Probe{} }

// UnavailableProbe returns a probe that always fails with err.
func UnavailableProbe(err error) *Probe { return &Probe{err: err} }

// PanickingProbe returns a probe that panics with v.
func PanickingProbe(v any) *Probe { return &Probe{panicV: v} }

// Available reports nil when the capability is reachable.
func (p *Probe) Available(_ context.Context) error {
	p.mu.Lock()
	p.calls++
	err, pv := p.err, p.panicV
	p.mu.Unlock()

	if pv != nil {
		panic(pv)
	}
	return err
}

// Calls returns how many times Available was invoked.
func (p *Probe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
