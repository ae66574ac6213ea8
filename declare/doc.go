// Package declare records which resources a test type owns and scans them
// into ordered declarations.
//
// Declarations are registered explicitly when the suite is composed. Shared
// declarations are bound to the type and live as long as the shared scope;
// per-unit declarations are read from the live test instance of every single
// execution:
//
//	base := declare.NewType("integration.Base")
//	declare.Shared(base, "postgres", func() *Postgres { return postgres })
//
//	suite := declare.NewType("integration.Orders").Extends(base)
//	declare.PerUnit(suite, "httpd", func(s *OrdersSuite) *HTTPD { return s.httpd })
//
//	decls, err := declare.Scan(declare.KindShared, suite, nil)
//
// The declared type is checked against lifecycle.Startable when scanning, so
// a misdeclared resource fails the scope with a configuration error before
// anything starts.
package declare
