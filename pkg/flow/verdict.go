package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/uiflow/pkg/browser"
)

// Verdict is the user-visible result of a scenario.
type Verdict string

const (
	VerdictPass  Verdict = "pass"
	VerdictFail  Verdict = "fail"
	VerdictInfra Verdict = "infra-error"
)

// PanicError is a recovered panic from a scenario body.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("scenario panicked: %v", e.Value)
}

// AbortedError marks a scenario that never started because the run was
// aborted, by a launch failure or by cancellation.
type AbortedError struct {
	Cause error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("not started, run aborted: %v", e.Cause)
}

func (e *AbortedError) Unwrap() error { return e.Cause }

// Attempt is one failed path tried by Run.FirstOf.
type Attempt struct {
	Name string
	Err  error
}

// FallbackError means every path offered to Run.FirstOf failed.
type FallbackError struct {
	Attempts []Attempt
}

func (e *FallbackError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Name, a.Err)
	}
	return fmt.Sprintf("all %d paths failed (%s)", len(e.Attempts), strings.Join(parts, "; "))
}

func (e *FallbackError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Classify maps a scenario error to a verdict. Harness problems (launch,
// navigation commit, crashed target, cancellation, panic) are infrastructure
// errors even when they surface through a step; assertion and step
// failures are application failures; anything unrecognised is treated as
// infrastructure.
func Classify(err error) Verdict {
	if err == nil {
		return VerdictPass
	}

	var (
		launchErr *browser.LaunchError
		navErr    *browser.NavigationError
		panicErr  *PanicError
		abortErr  *AbortedError
		assertErr *browser.AssertionError
		stepErr   *browser.StepError
		fallErr   *FallbackError
	)
	switch {
	case errors.As(err, &launchErr),
		errors.As(err, &navErr),
		errors.As(err, &panicErr),
		errors.As(err, &abortErr),
		errors.Is(err, browser.ErrTargetClosed),
		errors.Is(err, browser.ErrSessionReleased),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return VerdictInfra
	case errors.As(err, &assertErr),
		errors.As(err, &stepErr),
		errors.As(err, &fallErr):
		return VerdictFail
	default:
		return VerdictInfra
	}
}

// recoverable reports whether FirstOf may try the next path after err.
func recoverable(err error) bool {
	return Classify(err) == VerdictFail
}
