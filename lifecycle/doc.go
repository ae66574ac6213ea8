// Package lifecycle defines the capabilities scopekit expects from resources.
//
// A resource must implement Startable. It may additionally implement
// TestAware to be told when each test starts and how it ended:
//
//	type Postgres struct{ ... }
//
//	func (p *Postgres) Start(ctx context.Context) error { ... }
//	func (p *Postgres) Stop(ctx context.Context) error  { ... }
//
//	func (p *Postgres) BeforeTest(ctx context.Context, d lifecycle.Description) error { ... }
//	func (p *Postgres) AfterTest(ctx context.Context, d lifecycle.Description, o lifecycle.Outcome) error { ... }
package lifecycle
