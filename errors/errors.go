package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified scopekit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// Configuration creates an error for an invalid declaration or suite setup.
// The message should name the offending declaration.
func Configuration(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotStartable creates the configuration error raised when a declaration's
// type does not implement the Startable capability.
func NotStartable(declaration, typeName string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("FieldName: %s does not implement Startable", declaration),
		Details: map[string]any{"declaration": declaration, "type": typeName},
	}
}

// NotInitialized creates the error raised when a declared resource is nil at scan time.
func NotInitialized(declaration string) *AppError {
	return &AppError{
		Code:    ErrCodeNotInitialized,
		Message: fmt.Sprintf("Container %s needs to be initialized", declaration),
		Details: map[string]any{"declaration": declaration},
	}
}

// MarkerNotFound creates the error raised when no scope marker exists for a node.
func MarkerNotFound(node string) *AppError {
	return &AppError{
		Code:    ErrCodeMarkerNotFound,
		Message: "scope marker not found",
		Details: map[string]any{"node": node},
	}
}

// StoreTypeMismatch creates the error raised when a store is reopened with a different value type.
func StoreTypeMismatch(identifier, expected, actual string) *AppError {
	return &AppError{
		Code:    ErrCodeStoreTypeMismatch,
		Message: fmt.Sprintf("store %s holds %s, requested as %s", identifier, actual, expected),
		Details: map[string]any{"identifier": identifier, "expected": expected, "actual": actual},
	}
}

// StartFailed wraps the original failure of a resource's Start.
func StartFailed(key string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStartFailed,
		Message: fmt.Sprintf("failed to start resource %s", key),
		Details: map[string]any{"key": key},
		Cause:   cause,
	}
}

// AlreadyStarted creates the error raised when an adapter is started twice.
func AlreadyStarted(key string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyStarted,
		Message: fmt.Sprintf("resource %s was already started by this adapter", key),
		Details: map[string]any{"key": key},
	}
}

// CloseFailed combines every close failure of a teardown into one error.
// Returns nil when causes is empty.
func CloseFailed(scope string, causes []error) *AppError {
	return joined(ErrCodeCloseFailed, fmt.Sprintf("failed to close %d resource(s) of %s", len(causes), scope), causes)
}

// SignalFailed combines every notification failure of one dispatch into one error.
// Returns nil when causes is empty.
func SignalFailed(phase string, causes []error) *AppError {
	return joined(ErrCodeSignalFailed, fmt.Sprintf("%d resource(s) failed %s notification", len(causes), phase), causes)
}

// Unavailable creates an error for an external capability that cannot be reached.
func Unavailable(capability string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeUnavailable,
		Message:   fmt.Sprintf("%s is not available", capability),
		Retryable: true,
		Details:   map[string]any{"capability": capability},
		Cause:     cause,
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "an unexpected error occurred",
		Cause:   cause,
	}
}

func joined(code ErrorCode, message string, causes []error) *AppError {
	if len(causes) == 0 {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Details: map[string]any{"count": len(causes)},
		Cause:   stderrors.Join(causes...),
	}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is, or wraps, an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsConfiguration reports whether err is a configuration-class error.
func IsConfiguration(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsConfigurationCode(appErr.Code)
}

// Wrap converts any error into an AppError. AppErrors pass through unchanged.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// PanicError converts a recovered panic value into an error.
func PanicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", recovered)
}

// Describe returns a compact one-line summary of err for logs.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
