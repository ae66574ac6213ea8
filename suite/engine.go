package suite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/scopekit/logger"
	"github.com/kbukum/scopekit/scope"
)

// Engine runs containment trees and owns the scopes they create. One engine
// may run several trees; run-lifespan state is shared between them until
// Close.
type Engine struct {
	reg *scope.Registry
	run scope.Handle
	log *logger.Logger

	mu     sync.RWMutex
	hooks  []Hook
	closed bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithRegistry shares a scope registry with other engines.
func WithRegistry(reg *scope.Registry) EngineOption {
	return func(e *Engine) { e.reg = reg }
}

// NewEngine creates an engine with a fresh run scope.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		run: scope.Handle{Lifespan: scope.Run, ID: uuid.NewString()},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reg == nil {
		e.reg = scope.NewRegistry()
	}
	if e.log == nil {
		e.log = logger.Get("suite")
	}
	return e
}

// Use registers engine-wide hooks.
func (e *Engine) Use(hooks ...Hook) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, hooks...)
	return e
}

// Registry returns the scope registry.
func (e *Engine) Registry() *scope.Registry { return e.reg }

// RunHandle returns the run scope.
func (e *Engine) RunHandle() scope.Handle { return e.run }

// Close ends the run scope, tearing down everything stored in it.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	return e.reg.End(ctx, e.run)
}

// Run executes root as a subtest of t.
func (e *Engine) Run(t *testing.T, root *Node) {
	t.Helper()
	if root == nil {
		t.Fatal("suite: nil root node")
	}
	if err := root.attach(nil); err != nil {
		t.Fatalf("suite: %v", err)
	}
	e.runNode(t, root)
}

// Run executes root with hooks on a dedicated engine closed when t ends.
func Run(t *testing.T, root *Node, hooks ...Hook) {
	t.Helper()
	e := NewEngine().Use(hooks...)
	t.Cleanup(func() {
		if err := e.Close(context.Background()); err != nil {
			t.Errorf("suite: closing run scope: %v", err)
		}
	})
	e.Run(t, root)
}

func (e *Engine) snapshot() []Hook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Hook(nil), e.hooks...)
}

func (e *Engine) runNode(t *testing.T, n *Node) {
	t.Run(n.name, func(t *testing.T) {
		if n.parallel {
			t.Parallel()
		}
		ctx := context.Background()
		if !e.shouldRun(ctx, t, n) {
			return
		}
		if n.IsContainer() {
			e.runContainer(ctx, t, n)
			return
		}
		e.runUnit(ctx, t, n)
	})
}

func (e *Engine) shouldRun(ctx context.Context, t *testing.T, n *Node) bool {
	for _, h := range sortHooks(filterHooks[SkipHook](e.snapshot())) {
		d, err := h.ShouldSkip(ctx, n)
		if err != nil {
			t.Fatalf("suite: evaluating skip for %s: %v", n.name, err)
		}
		if d.Skip {
			e.log.Info("node skipped", logger.Fields(logger.FieldNode, t.Name(), "reason", d.Reason))
			t.Skip(d.Reason)
			return false
		}
	}
	return true
}

func (e *Engine) runContainer(ctx context.Context, t *testing.T, n *Node) {
	cc := &ContainerContext{
		Node:      n,
		Path:      t.Name(),
		Handle:    scope.Handle{Lifespan: scope.Node, ID: t.Name()},
		RunHandle: e.run,
		Registry:  e.reg,
	}

	hooks := filterHooks[ContainerHook](e.snapshot())
	hooks = sortHooks(append(hooks, filterHooks[ContainerHook](n.hooks)...))

	var entered []ContainerHook
	t.Cleanup(func() {
		for i := len(entered) - 1; i >= 0; i-- {
			if err := entered[i].AfterContainer(ctx, cc); err != nil {
				t.Errorf("suite: leaving %s: %v", n.name, err)
			}
		}
		if err := e.reg.End(ctx, cc.Handle); err != nil {
			t.Errorf("suite: ending scope of %s: %v", n.name, err)
		}
	})

	for _, h := range hooks {
		if err := h.BeforeContainer(ctx, cc); err != nil {
			t.Fatalf("suite: entering %s: %v", n.name, err)
		}
		entered = append(entered, h)
	}
	e.log.Debug("container entered", logger.Fields(logger.FieldNode, cc.Path, logger.FieldCount, len(n.children)))

	for _, c := range n.children {
		e.runNode(t, c)
	}
}

func (e *Engine) unitHooks(n *Node) []AroundUnitHook {
	hooks := filterHooks[AroundUnitHook](e.snapshot())
	var chain []*Node
	for cur := n; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		hooks = append(hooks, filterHooks[AroundUnitHook](chain[i].hooks)...)
	}
	return sortHooks(hooks)
}

func (e *Engine) runUnit(ctx context.Context, t *testing.T, n *Node) {
	hooks := e.unitHooks(n)
	repeat(n.tries, func(try int) Result {
		name := fmt.Sprintf("try-%d", try)
		uc := &UnitContext{
			Node:      n,
			Container: n.Container(),
			Instance:  n.newInstance(),
			Try:       try,
			Label:     n.name,
			Path:      t.Name() + "/" + name,
			Handle:    scope.Handle{Lifespan: scope.Execution, ID: uuid.NewString()},
			RunHandle: e.run,
			Registry:  e.reg,
		}

		res := aroundChain(ctx, hooks, uc, func() Result {
			return e.execute(t, name, n, uc)
		})
		// failures of the body are reported by its subtest; hook failures are not
		if res.Failed() && !t.Failed() {
			t.Errorf("suite: %s: %v", name, res.Err)
		}

		if err := e.reg.End(ctx, uc.Handle); err != nil {
			t.Errorf("suite: ending execution %s: %v", uc.Path, err)
		}
		e.log.Debug("unit executed", logger.Fields(
			logger.FieldNode, uc.Path,
			logger.FieldExecution, uc.Handle.ID,
			logger.FieldOutcome, res.Status.String(),
		))
		return res
	})
}

// execute runs one try in its own subtest so that t.FailNow, t.Skip and
// panics end only that subtest.
func (e *Engine) execute(t *testing.T, name string, n *Node, uc *UnitContext) Result {
	var res Result
	t.Run(name, func(tt *testing.T) {
		var (
			err       error
			completed bool
		)
		defer func() {
			r := recover()
			res = classify(tt, r, err, completed)
			if r != nil || err != nil {
				tt.Error(res.Err)
			}
		}()
		err = n.body(tt, uc.Instance)
		completed = true
	})
	return res
}

// repeat calls run for tries 1..count, stopping after the first failure.
func repeat(count int, run func(try int) Result) []Result {
	if count < 1 {
		count = 1
	}
	results := make([]Result, 0, count)
	for try := 1; try <= count; try++ {
		res := run(try)
		results = append(results, res)
		if res.Failed() {
			break
		}
	}
	return results
}
