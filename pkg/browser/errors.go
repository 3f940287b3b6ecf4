package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDriverTimeout marks a driver call that exceeded its budget.
	ErrDriverTimeout = errors.New("browser: timeout")

	// ErrTargetClosed marks a call against a page, context or browser that
	// is gone, typically after a crash.
	ErrTargetClosed = errors.New("browser: target closed")
)

// LaunchError means the browser process could not be started. It is fatal
// for the run and never retried.
type LaunchError struct {
	ExecutablePath string
	Err            error
}

func (e *LaunchError) Error() string {
	if e.ExecutablePath != "" {
		return fmt.Sprintf("failed to launch browser %s: %v", e.ExecutablePath, e.Err)
	}
	return fmt.Sprintf("failed to launch browser: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError means a navigation was not even committed.
type NavigationError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s not committed within %v: %v", e.URL, e.Timeout, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// StepError carries a non-successful StepResult. Flows inspect it to pick a
// fallback path.
type StepError struct {
	Result StepResult
}

func (e *StepError) Error() string {
	r := e.Result
	target := ""
	if !r.Selector.IsZero() {
		target = " on " + r.Selector.Describe()
	}
	if r.Err != nil {
		return fmt.Sprintf("%s%s %s after %v: %v", r.Action, target, r.Status, r.Elapsed.Round(time.Millisecond), r.Err)
	}
	return fmt.Sprintf("%s%s %s after %v", r.Action, target, r.Status, r.Elapsed.Round(time.Millisecond))
}

func (e *StepError) Unwrap() error { return e.Result.Err }

// AssertionError reports that the application did not reach the expected
// end state. Expectation is the business-level statement that was violated.
type AssertionError struct {
	Expectation string
	Missing     []string
	Timeout     time.Duration
	URL         string
	// Excerpt is the start of the page's visible text at failure time.
	Excerpt string
}

func (e *AssertionError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	msg := fmt.Sprintf("%s: expected %s within %v", e.Expectation, strings.Join(quoted, ", "), e.Timeout)
	if e.URL != "" {
		msg += " at " + e.URL
	}
	return msg
}

// CleanupError collects teardown failures. It is logged, never escalated.
type CleanupError struct {
	Errs []error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed: %v", errors.Join(e.Errs...))
}

func (e *CleanupError) Unwrap() []error { return e.Errs }

func cleanupErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &CleanupError{Errs: errs}
}
