package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/uiflow/pkg/config"
	"github.com/entrhq/uiflow/pkg/logging"
)

// ActionKind names a user-intent action.
type ActionKind string

const (
	ActionClick       ActionKind = "click"
	ActionFill        ActionKind = "fill"
	ActionScroll      ActionKind = "scroll"
	ActionEvaluate    ActionKind = "evaluate"
	ActionWaitVisible ActionKind = "wait_visible"
	ActionPause       ActionKind = "pause"
)

// Action is one step a user would take.
type Action struct {
	Kind  ActionKind
	Text  string
	DX    float64
	DY    float64
	Expr  string
	Delay time.Duration
}

// Click clicks the target once it is attached.
func Click() Action { return Action{Kind: ActionClick} }

// Fill replaces the target's value with text.
func Fill(text string) Action { return Action{Kind: ActionFill, Text: text} }

// ScrollBy dispatches a mouse wheel delta on the page.
func ScrollBy(dx, dy float64) Action { return Action{Kind: ActionScroll, DX: dx, DY: dy} }

// Evaluate runs a JavaScript expression in the scope.
func Evaluate(expr string) Action { return Action{Kind: ActionEvaluate, Expr: expr} }

// WaitVisible waits for the target to become visible.
func WaitVisible() Action { return Action{Kind: ActionWaitVisible} }

// Pause waits a fixed delay.
func Pause(d time.Duration) Action { return Action{Kind: ActionPause, Delay: d} }

func (a Action) String() string {
	switch a.Kind {
	case ActionFill:
		return fmt.Sprintf("fill(%d chars)", len(a.Text))
	case ActionScroll:
		return fmt.Sprintf("scroll(%g,%g)", a.DX, a.DY)
	case ActionPause:
		return fmt.Sprintf("pause(%v)", a.Delay)
	default:
		return string(a.Kind)
	}
}

// needsTarget reports whether the action addresses an element.
func (a Action) needsTarget() bool {
	switch a.Kind {
	case ActionClick, ActionFill, ActionWaitVisible:
		return true
	}
	return false
}

// StepStatus is the outcome class of one Act call.
type StepStatus int

const (
	StepSucceeded StepStatus = iota
	StepTimedOut
	StepNotFound
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepSucceeded:
		return "succeeded"
	case StepTimedOut:
		return "timed out"
	case StepNotFound:
		return "element not found"
	default:
		return "failed"
	}
}

// StepResult is the transient outcome of one Act call.
type StepResult struct {
	Action   Action
	Selector Selector
	Status   StepStatus
	Err      error
	Elapsed  time.Duration
	// Value holds an evaluate result.
	Value any
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool { return r.Status == StepSucceeded }

// Error returns a *StepError for an unsuccessful result, nil otherwise.
func (r StepResult) Error() error {
	if r.OK() {
		return nil
	}
	return &StepError{Result: r}
}

// countTimeout bounds the element count used to tell a missing target from
// a slow one.
const countTimeout = time.Second

// Executor performs single actions with a bounded budget.
type Executor struct {
	logger      *logging.Logger
	stepTimeout time.Duration
}

// NewExecutor creates an executor using timeouts.Step as the default budget.
func NewExecutor(timeouts config.TimeoutSettings, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	step := timeouts.Step
	if step <= 0 {
		step = config.DefaultTimeouts().Step
	}
	return &Executor{logger: logger.Named("executor"), stepTimeout: step}
}

// StepTimeout returns the default budget used when Act gets none.
func (e *Executor) StepTimeout() time.Duration {
	return e.stepTimeout
}

// Act performs action against sel in scope within timeout. The locator is
// resolved afresh on every call. A zero timeout uses the step default.
func (e *Executor) Act(ctx context.Context, scope Scope, sel Selector, action Action, timeout time.Duration) StepResult {
	if timeout <= 0 {
		timeout = e.stepTimeout
	}
	start := time.Now()
	res := StepResult{Action: action, Selector: sel}

	if action.needsTarget() && sel.IsZero() {
		res.Status = StepFailed
		res.Err = fmt.Errorf("%s needs a selector", action.Kind)
		return e.finish(res, start)
	}

	switch action.Kind {
	case ActionClick, ActionFill:
		res.Status, res.Err = e.interact(ctx, scope, sel, action, timeout, start)
	case ActionWaitVisible:
		res.Status, res.Err = e.waitVisible(ctx, scope, sel, timeout)
	case ActionScroll:
		res.Status, res.Err = e.scroll(ctx, scope, action, timeout)
	case ActionEvaluate:
		var value any
		err := bounded(ctx, timeout, func() error {
			v, err := scope.Evaluate(action.Expr)
			value = v
			return err
		})
		if err == nil {
			res.Value = value
		}
		res.Status, res.Err = classifyStep(err), err
	case ActionPause:
		delay := action.Delay
		if delay > timeout {
			e.logger.Debugf("pause of %v capped at %v", delay, timeout)
			delay = timeout
		}
		err := sleep(ctx, delay)
		res.Status, res.Err = classifyStep(err), err
	default:
		res.Status = StepFailed
		res.Err = fmt.Errorf("unknown action %q", action.Kind)
	}

	return e.finish(res, start)
}

func (e *Executor) interact(ctx context.Context, scope Scope, sel Selector, action Action, timeout time.Duration, start time.Time) (StepStatus, error) {
	loc := Locate(scope, sel)

	err := bounded(ctx, timeout, func() error {
		return loc.WaitFor(StateAttached, timeout)
	})
	if err != nil {
		if errors.Is(err, ErrDriverTimeout) {
			return StepNotFound, err
		}
		return StepFailed, err
	}

	remaining := timeout - time.Since(start)
	if remaining <= 0 {
		return StepTimedOut, fmt.Errorf("%w after %v", ErrDriverTimeout, timeout)
	}

	err = bounded(ctx, remaining, func() error {
		if action.Kind == ActionFill {
			return loc.Fill(action.Text, remaining)
		}
		return loc.Click(remaining)
	})
	return classifyStep(err), err
}

func (e *Executor) waitVisible(ctx context.Context, scope Scope, sel Selector, timeout time.Duration) (StepStatus, error) {
	loc := Locate(scope, sel)
	err := bounded(ctx, timeout, func() error {
		return loc.WaitFor(StateVisible, timeout)
	})
	if err == nil || !errors.Is(err, ErrDriverTimeout) {
		return classifyStep(err), err
	}

	var count int
	countErr := bounded(ctx, countTimeout, func() error {
		n, err := Locate(scope, sel).Count()
		count = n
		return err
	})
	if countErr == nil && count == 0 {
		return StepNotFound, err
	}
	return StepTimedOut, err
}

func (e *Executor) scroll(ctx context.Context, scope Scope, action Action, timeout time.Duration) (StepStatus, error) {
	page, ok := scope.(Page)
	if !ok {
		return StepFailed, fmt.Errorf("scroll needs a page, got frame %q", scope.Name())
	}
	err := bounded(ctx, timeout, func() error {
		return page.Wheel(action.DX, action.DY)
	})
	return classifyStep(err), err
}

func (e *Executor) finish(res StepResult, start time.Time) StepResult {
	res.Elapsed = time.Since(start)
	target := ""
	if !res.Selector.IsZero() {
		target = " " + res.Selector.Describe()
	}
	if res.OK() {
		e.logger.Debugf("%s%s ok in %v", res.Action, target, res.Elapsed.Round(time.Millisecond))
	} else {
		e.logger.Warnf("%s%s %s after %v: %v", res.Action, target, res.Status, res.Elapsed.Round(time.Millisecond), res.Err)
	}
	return res
}

func classifyStep(err error) StepStatus {
	switch {
	case err == nil:
		return StepSucceeded
	case errors.Is(err, ErrDriverTimeout):
		return StepTimedOut
	default:
		return StepFailed
	}
}
