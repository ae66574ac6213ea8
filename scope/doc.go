// Package scope provides the keyed, lifespan-bound stores that every other
// scopekit package keeps its state in.
//
// A Handle names one live scope: the whole run, one containment node or one
// unit execution. Stores are created lazily per (Handle, Identifier) and are
// torn down exactly once when the owning scope ends:
//
//	reg := scope.NewRegistry()
//	run := scope.Handle{Lifespan: scope.Run, ID: "run"}
//
//	st, err := scope.GetOrCreate(reg, run, "resources", func() []string { return nil })
//	st.OnClose(func(ctx context.Context, v []string) error { return release(ctx, v) })
//
//	err = reg.End(ctx, run) // fires the teardown
package scope
