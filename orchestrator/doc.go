// Package orchestrator starts, signals and stops declared resources around
// the nodes of a suite.
//
// Register one Orchestrator with a suite engine. Every node needs a scope
// marker on itself or an ancestor:
//
//	orch, err := orchestrator.New(orchestrator.WithConfig(cfg))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	suite.Run(t, tree, orch)
//
// On entering a class its shared declarations are started once per shared
// scope and test-aware resources receive BeforeTest. Every try of a unit
// starts its own per-unit declarations from the fresh test instance, signals
// them before and after the try with the outcome, and stops them when the
// try ends. Leaving the class signals AfterTest to the class's shared
// test-aware resources.
package orchestrator
