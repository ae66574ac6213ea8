package lifecycle

import (
	"errors"
)

// ErrExecutionAborted marks an execution the host aborted rather than one
// whose test logic failed. It is delivered to TestAware resources even though
// no underlying failure exists.
var ErrExecutionAborted = errors.New("test execution aborted")

// Status classifies how a unit execution ended.
type Status int

const (
	Succeeded Status = iota
	Failed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Outcome is what a TestAware resource learns about a finished test.
type Outcome struct {
	Status Status
	// Err is nil on success, the original failure on Failed and
	// ErrExecutionAborted on Aborted.
	Err error
}

// Success returns the outcome of a passing execution.
func Success() Outcome { return Outcome{Status: Succeeded} }

// Failure returns the outcome of an execution whose test logic failed.
func Failure(err error) Outcome { return Outcome{Status: Failed, Err: err} }

// Abort returns the outcome of an execution aborted by the host.
func Abort() Outcome { return Outcome{Status: Aborted, Err: ErrExecutionAborted} }

// Succeeded reports whether the execution passed.
func (o Outcome) Succeeded() bool { return o.Status == Succeeded }

// Aborted reports whether the host aborted the execution.
func (o Outcome) Aborted() bool { return o.Status == Aborted }

func (o Outcome) String() string {
	if o.Err == nil {
		return o.Status.String()
	}
	return o.Status.String() + ": " + o.Err.Error()
}
