// Package errors provides the structured error type used across scopekit.
// Every failure surfaced to a test carries a machine-readable code, a
// human-readable message naming the offending declaration or scope, and the
// original cause when one exists.
package errors
