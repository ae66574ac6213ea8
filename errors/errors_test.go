package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeConfiguration, "bad declaration")
	if err.Code != ErrCodeConfiguration {
		t.Errorf("expected code %s, got %s", ErrCodeConfiguration, err.Code)
	}
	if err.Message != "bad declaration" {
		t.Errorf("expected message 'bad declaration', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("CONFIGURATION_ERROR should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeUnavailable, "docker down")
	if !err.Retryable {
		t.Error("UNAVAILABLE should be retryable")
	}
}

func TestNotStartable_NamesDeclaration(t *testing.T) {
	err := NotStartable("httpd", "string")
	if err.Code != ErrCodeConfiguration {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "httpd") {
		t.Errorf("expected message to name the declaration, got %q", err.Message)
	}
	if err.Details["type"] != "string" {
		t.Errorf("expected type=string, got %v", err.Details["type"])
	}
}

func TestNotInitialized_NamesDeclaration(t *testing.T) {
	err := NotInitialized("postgres")
	if err.Code != ErrCodeNotInitialized {
		t.Errorf("expected NOT_INITIALIZED, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "postgres needs to be initialized") {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestStartFailed_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("port in use")
	err := StartFailed("pkg.Suite.db", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the original cause")
	}
	if !strings.Contains(err.Error(), "port in use") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestCloseFailed_JoinsAllCauses(t *testing.T) {
	first := fmt.Errorf("first")
	second := fmt.Errorf("second")
	err := CloseFailed("run", []error{first, second})
	if err.Code != ErrCodeCloseFailed {
		t.Errorf("expected CLOSE_FAILED, got %s", err.Code)
	}
	if !stderrors.Is(err, first) || !stderrors.Is(err, second) {
		t.Error("expected both causes to be reachable")
	}
	if err.Details["count"] != 2 {
		t.Errorf("expected count=2, got %v", err.Details["count"])
	}
}

func TestJoined_EmptyReturnsNil(t *testing.T) {
	if CloseFailed("run", nil) != nil {
		t.Error("CloseFailed with no causes should return nil")
	}
	if SignalFailed("before", []error{}) != nil {
		t.Error("SignalFailed with no causes should return nil")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Configuration("bad %s", "thing").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := MarkerNotFound("Suite").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["node"] != "Suite" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"another": "detail"})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized")
	}
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestErrorCode_Classes(t *testing.T) {
	config := []ErrorCode{ErrCodeConfiguration, ErrCodeNotInitialized, ErrCodeMarkerNotFound, ErrCodeStoreTypeMismatch}
	for _, code := range config {
		if !IsConfigurationCode(code) {
			t.Errorf("expected %s to be a configuration code", code)
		}
	}

	other := []ErrorCode{ErrCodeStartFailed, ErrCodeCloseFailed, ErrCodeSignalFailed, ErrCodeUnavailable, ErrCodeInternal}
	for _, code := range other {
		if IsConfigurationCode(code) {
			t.Errorf("expected %s to NOT be a configuration code", code)
		}
	}
}

func TestIsCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotInitialized("db"))
	if !IsCode(err, ErrCodeNotInitialized) {
		t.Error("expected IsCode to see through wrapping")
	}
	if !IsConfiguration(err) {
		t.Error("expected IsConfiguration to be true")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeNotInitialized) {
		t.Error("expected IsCode to be false for a plain error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := MarkerNotFound("x")
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}

func TestPanicError(t *testing.T) {
	cause := fmt.Errorf("boom")
	if err := PanicError(cause); !stderrors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err := PanicError("text"); err.Error() != "panic: text" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = NotInitialized("db")
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
}
