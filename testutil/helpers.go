package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/scopekit/lifecycle"
)

// CleanupFunc stops whatever Setup started.
type CleanupFunc func() error

// Setup starts a resource and returns a cleanup function.
//
//	cleanup, err := testutil.Setup(db)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func Setup(r lifecycle.Startable) (CleanupFunc, error) {
	return SetupWithContext(context.Background(), r)
}

// SetupWithContext starts a resource with a custom context.
func SetupWithContext(ctx context.Context, r lifecycle.Startable) (CleanupFunc, error) {
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	return func() error { return r.Stop(ctx) }, nil
}

// Teardown stops a resource.
func Teardown(r lifecycle.Startable) error {
	return r.Stop(context.Background())
}

// THelper provides testing.T integration for easier test setup.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps a testing.TB to provide helper methods.
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Start starts r and stops it when the test ends.
func (h *THelper) Start(r lifecycle.Startable) {
	h.t.Helper()
	if err := r.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start %T: %v", r, err)
	}
	h.t.Cleanup(func() {
		if err := r.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop %T: %v", r, err)
		}
	})
}
