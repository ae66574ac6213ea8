// Package logger provides structured logging for scopekit using zerolog.
//
// Components obtain a tagged logger with Get and log with map fields:
//
//	log := logger.Get("resource")
//	log.Info("resource started", logger.Fields(logger.FieldKey, key))
//
// The global logger defaults to console output on stderr so it does not mix
// with `go test -json` output. Set Output to "discard" to silence it.
package logger
