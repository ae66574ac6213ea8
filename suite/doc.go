// Package suite runs an explicit containment tree of test nodes on top of
// testing.T and exposes the hook points resource orchestration plugs into.
//
// A tree is built from classes, which own resource declarations and may
// nest, and tests, which are the executable units:
//
//	tree := suite.Class("Orders", ordersType,
//	    suite.WithMarker(skip.Marker{SkipWhenUnavailable: true}),
//	    suite.WithInstance(func() any { return &OrdersSuite{httpd: newHTTPD()} }),
//	    suite.Test("creates order", func(t *testing.T, s *OrdersSuite) error {
//	        return s.httpd.Post("/orders")
//	    }, suite.Tries(10)),
//	)
//	suite.Run(t, tree, orch)
//
// Every node becomes a subtest. Every try of a unit runs in its own subtest
// so its outcome can be observed even when it calls t.FailNow or t.Skip.
//
// # Hooks
//
// ContainerHook, AroundUnitHook and SkipHook implementations are ordered by
// Proximity: lower values sit further from the test, so their before phase
// runs first and their after phase runs last. User hooks registered with
// BeforeAll, AfterAll, BeforeEach and AfterEach have UserProximity.
package suite
