package suite

import (
	"context"
	"slices"

	"github.com/kbukum/scopekit/scope"
	"github.com/kbukum/scopekit/skip"
)

// UserProximity is the proximity of hooks registered through BeforeAll,
// AfterAll, BeforeEach and AfterEach.
const UserProximity = -10

// Hook is the common part of every hook. Lower proximity runs further from
// the test.
type Hook interface {
	Proximity() int
}

// ContainerHook brackets the execution of a container node.
type ContainerHook interface {
	Hook
	BeforeContainer(ctx context.Context, cc *ContainerContext) error
	AfterContainer(ctx context.Context, cc *ContainerContext) error
}

// AroundUnitHook wraps every try of a unit. Implementations call next
// exactly once unless they decide the try must not run.
type AroundUnitHook interface {
	Hook
	AroundUnit(ctx context.Context, uc *UnitContext, next func() Result) Result
}

// SkipHook decides whether a node runs at all.
type SkipHook interface {
	Hook
	ShouldSkip(ctx context.Context, node *Node) (skip.Decision, error)
}

// ContainerContext describes a container node while it executes.
type ContainerContext struct {
	Node *Node
	// Path is the full subtest name of the node.
	Path string
	// Handle is the node's own scope, ended after AfterContainer.
	Handle scope.Handle
	// RunHandle is the engine-wide scope.
	RunHandle scope.Handle
	Registry  *scope.Registry
}

// UnitContext describes one try of a unit node.
type UnitContext struct {
	Node *Node
	// Container is the nearest enclosing container.
	Container *Node
	// Instance is the fresh test instance of this try, or nil.
	Instance any
	// Try counts from 1.
	Try   int
	Label string
	// Path is the full subtest name of the try.
	Path string
	// Handle is the execution scope, ended after the try.
	Handle    scope.Handle
	RunHandle scope.Handle
	Registry  *scope.Registry
}

// sortHooks orders hooks by ascending proximity, keeping registration order
// for ties.
func sortHooks[H Hook](hooks []H) []H {
	out := slices.Clone(hooks)
	slices.SortStableFunc(out, func(a, b H) int { return a.Proximity() - b.Proximity() })
	return out
}

func filterHooks[H Hook](hooks []Hook) []H {
	var out []H
	for _, h := range hooks {
		if typed, ok := h.(H); ok {
			out = append(out, typed)
		}
	}
	return out
}

// aroundChain runs next wrapped by hooks, the first hook outermost.
func aroundChain(ctx context.Context, hooks []AroundUnitHook, uc *UnitContext, next func() Result) Result {
	if len(hooks) == 0 {
		return next()
	}
	return hooks[0].AroundUnit(ctx, uc, func() Result {
		return aroundChain(ctx, hooks[1:], uc, next)
	})
}

type userContainerHook struct {
	before func(ctx context.Context, cc *ContainerContext) error
	after  func(ctx context.Context, cc *ContainerContext) error
}

func (h *userContainerHook) Proximity() int { return UserProximity }

func (h *userContainerHook) BeforeContainer(ctx context.Context, cc *ContainerContext) error {
	if h.before == nil {
		return nil
	}
	return h.before(ctx, cc)
}

func (h *userContainerHook) AfterContainer(ctx context.Context, cc *ContainerContext) error {
	if h.after == nil {
		return nil
	}
	return h.after(ctx, cc)
}

type userUnitHook struct {
	before func(ctx context.Context, uc *UnitContext) error
	after  func(ctx context.Context, uc *UnitContext) error
}

func (h *userUnitHook) Proximity() int { return UserProximity }

func (h *userUnitHook) AroundUnit(ctx context.Context, uc *UnitContext, next func() Result) Result {
	if h.before != nil {
		if err := h.before(ctx, uc); err != nil {
			return Fail(err)
		}
	}
	res := next()
	if h.after != nil {
		if err := h.after(ctx, uc); err != nil && !res.Failed() {
			return Fail(err)
		}
	}
	return res
}
