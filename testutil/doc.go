// Package testutil provides fakes for exercising scopekit without real
// infrastructure.
//
// Resource is a Startable whose identity changes on every Start, the way a
// container gets a new ID each time it is created. AwareResource adds the
// TestAware capability and records every signal it receives. Recorder keeps
// a shared, ordered event log so tests can assert interleavings across
// resources and hooks. Probe is a scriptable availability probe.
//
// # Quick Start
//
//	rec := testutil.NewRecorder()
//	db := testutil.NewAwareResource("db").WithRecorder(rec)
//
//	testutil.T(t).Start(db) // stopped automatically when the test ends
//
// # Thread Safety
//
// All fakes are safe for concurrent use.
package testutil
