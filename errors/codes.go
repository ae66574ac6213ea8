package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors (fatal, never retried)
const (
	// ErrCodeConfiguration indicates an invalid resource declaration or suite setup.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeNotInitialized indicates a declared resource had no value at scan time.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"
	// ErrCodeMarkerNotFound indicates no scope marker was attached to a node or its ancestors.
	ErrCodeMarkerNotFound ErrorCode = "MARKER_NOT_FOUND"
	// ErrCodeStoreTypeMismatch indicates a store was requested with a different value type.
	ErrCodeStoreTypeMismatch ErrorCode = "STORE_TYPE_MISMATCH"
)

// Lifecycle errors
const (
	// ErrCodeStartFailed indicates a resource failed to start.
	ErrCodeStartFailed ErrorCode = "START_FAILED"
	// ErrCodeCloseFailed indicates one or more resources failed to stop.
	ErrCodeCloseFailed ErrorCode = "CLOSE_FAILED"
	// ErrCodeAlreadyStarted indicates an adapter was started twice.
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	// ErrCodeSignalFailed indicates one or more test-aware resources rejected a notification.
	ErrCodeSignalFailed ErrorCode = "SIGNAL_FAILED"
)

// Availability errors (retryable)
const (
	// ErrCodeUnavailable indicates a required external capability is not reachable.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeTimeout indicates an operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUnavailable: true,
	ErrCodeTimeout:     true,
	ErrCodeStartFailed: false,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsConfigurationCode reports whether code belongs to the configuration class
// of errors, which abort a scope before any resource starts.
func IsConfigurationCode(code ErrorCode) bool {
	switch code {
	case ErrCodeConfiguration, ErrCodeNotInitialized, ErrCodeMarkerNotFound, ErrCodeStoreTypeMismatch:
		return true
	}
	return false
}
