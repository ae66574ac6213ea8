package suite

import (
	"errors"
	"fmt"

	scopeerrors "github.com/kbukum/scopekit/errors"
)

// Status is how one try of a unit ended.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusAborted:
		return "aborted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of one unit try as seen by around hooks.
type Result struct {
	Status Status
	Err    error
}

// ErrTestFailed is reported when a test failed through testing.T rather
// than by returning an error.
var ErrTestFailed = errors.New("test failed")

// ErrTestSkipped is reported when a test skipped itself.
var ErrTestSkipped = errors.New("test skipped")

// Pass returns a passing result.
func Pass() Result { return Result{Status: StatusPassed} }

// Fail returns a failing result. A nil err is replaced by ErrTestFailed.
func Fail(err error) Result {
	if err == nil {
		err = ErrTestFailed
	}
	return Result{Status: StatusFailed, Err: err}
}

// Abort returns the result of a try that did not run to completion.
func Abort(reason error) Result {
	if reason == nil {
		reason = ErrTestSkipped
	}
	return Result{Status: StatusAborted, Err: reason}
}

// Failed reports whether the try failed.
func (r Result) Failed() bool { return r.Status == StatusFailed }

func (r Result) String() string {
	if r.Err == nil {
		return r.Status.String()
	}
	return r.Status.String() + ": " + r.Err.Error()
}

// testStatus is the part of testing.T classification needs.
type testStatus interface {
	Failed() bool
	Skipped() bool
}

// classify maps how a try's goroutine ended to a Result. recovered is the
// panic value, err the body's return value and completed whether the body
// returned normally.
func classify(t testStatus, recovered any, err error, completed bool) Result {
	switch {
	case recovered != nil:
		return Fail(scopeerrors.PanicError(recovered))
	case err != nil:
		return Fail(err)
	case t.Failed():
		return Fail(ErrTestFailed)
	case t.Skipped():
		return Abort(ErrTestSkipped)
	case !completed:
		return Abort(errors.New("test exited before completion"))
	}
	return Pass()
}
