// Package resource binds declared resources to scopes.
//
// An Adapter pairs one declaration with its runtime state. A Store is the
// scoped collection of adapters: GetOrStart starts each key at most once per
// scope lifetime, even under concurrent callers, and the teardown installed
// by Open closes every registered adapter when the scope ends.
package resource
