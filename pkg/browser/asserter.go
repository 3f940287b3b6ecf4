package browser

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/entrhq/uiflow/pkg/config"
	"github.com/entrhq/uiflow/pkg/logging"
)

// DefaultPollInterval is how often the asserter re-checks the DOM.
const DefaultPollInterval = 250 * time.Millisecond

// assertSlack is how far past its timeout an assertion may run, page
// excerpt included.
const assertSlack = 150 * time.Millisecond

// Marker is a piece of visible text that proves the application reached a
// state, paired with the user-facing expectation its absence violates.
type Marker struct {
	Text        string
	Exact       bool
	Expectation string
}

// Expect is shorthand for a substring marker.
func Expect(text, expectation string) Marker {
	return Marker{Text: text, Expectation: expectation}
}

func (m Marker) selector() Selector {
	if m.Exact {
		return ExactText(m.Text)
	}
	return Text(m.Text)
}

// Asserter polls the DOM for expected end states.
type Asserter struct {
	logger   *logging.Logger
	timeout  time.Duration
	interval time.Duration
}

// NewAsserter creates an asserter bounded by timeouts.Assertion.
func NewAsserter(timeouts config.TimeoutSettings, logger *logging.Logger) *Asserter {
	if logger == nil {
		logger = logging.Discard()
	}
	timeout := timeouts.Assertion
	if timeout <= 0 {
		timeout = config.DefaultTimeouts().Assertion
	}
	return &Asserter{
		logger:   logger.Named("assert"),
		timeout:  timeout,
		interval: DefaultPollInterval,
	}
}

// SetPollInterval changes the polling period.
func (a *Asserter) SetPollInterval(d time.Duration) {
	if d > 0 {
		a.interval = d
	}
}

// Timeout returns the assertion budget.
func (a *Asserter) Timeout() time.Duration {
	return a.timeout
}

// AssertVisible waits until m is visible in scope. On timeout it returns an
// *AssertionError stating m.Expectation.
func (a *Asserter) AssertVisible(ctx context.Context, scope Scope, m Marker) error {
	return a.AssertAllVisible(ctx, scope, m)
}

// AssertAllVisible waits, under one shared deadline, until every marker is
// visible. The error lists every marker still missing at the deadline.
func (a *Asserter) AssertAllVisible(ctx context.Context, scope Scope, markers ...Marker) error {
	if len(markers) == 0 {
		return nil
	}
	pending := append([]Marker(nil), markers...)

	actx, cancel := a.bound(ctx)
	defer cancel()

	err := a.poll(ctx, actx, func() (bool, error) {
		still := make([]Marker, 0, len(pending))
		for i, m := range pending {
			visible, err := a.isVisible(actx, scope, m)
			if err != nil {
				pending = append(still, pending[i:]...)
				return false, err
			}
			if !visible {
				still = append(still, m)
			}
		}
		pending = still
		return len(pending) == 0, nil
	})
	if err == nil {
		a.logger.Debugf("%d marker(s) visible at %s", len(markers), scope.URL())
		return nil
	}
	if !errors.Is(err, errDeadline) {
		return err
	}

	missing := make([]string, len(pending))
	var expectations []string
	for i, m := range pending {
		missing[i] = m.Text
		if m.Expectation != "" && !slices.Contains(expectations, m.Expectation) {
			expectations = append(expectations, m.Expectation)
		}
	}
	return a.fail(actx, scope, strings.Join(expectations, "; "), missing)
}

// AssertTrue waits until expr evaluates to true in scope. It is used for
// state that has no visible text, such as form validity.
func (a *Asserter) AssertTrue(ctx context.Context, scope Scope, expr, expectation string) error {
	actx, cancel := a.bound(ctx)
	defer cancel()

	var lastErr error
	err := a.poll(ctx, actx, func() (bool, error) {
		v, err := boundedValue(actx, a.interval, func() (any, error) {
			return scope.Evaluate(expr)
		}, nil)
		if err != nil {
			if actx.Err() != nil {
				return false, actx.Err()
			}
			if errors.Is(err, ErrTargetClosed) {
				return false, err
			}
			lastErr = err
			return false, nil
		}
		ok, _ := v.(bool)
		return ok, nil
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, errDeadline) {
		return err
	}
	if lastErr != nil {
		a.logger.Debugf("last evaluate error for %q: %v", expr, lastErr)
	}
	return a.fail(actx, scope, expectation, []string{expr})
}

var errDeadline = errors.New("assertion deadline")

// bound returns the context every driver call of one assertion runs under.
// It expires assertSlack after the assertion timeout.
func (a *Asserter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout+assertSlack)
}

// poll calls check until it reports done, returns an error, or the
// assertion budget runs out (errDeadline). The last check happens at or
// after the deadline so a marker that just appeared is still seen; actx
// cuts that check short.
func (a *Asserter) poll(ctx, actx context.Context, check func() (bool, error)) error {
	deadline := time.Now().Add(a.timeout)
	for {
		done, err := check()
		if err != nil {
			if ctx.Err() == nil && actx.Err() != nil {
				return errDeadline
			}
			return err
		}
		if done {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errDeadline
		}
		wait := a.interval
		if remaining < wait {
			wait = remaining
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (a *Asserter) isVisible(ctx context.Context, scope Scope, m Marker) (bool, error) {
	visible, err := boundedValue(ctx, a.interval, Locate(scope, m.selector()).IsVisible, nil)
	switch {
	case err == nil:
		return visible, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, ErrTargetClosed):
		return false, err
	default:
		// a re-rendering DOM can fail a single check; the next poll retries
		return false, nil
	}
}

func (a *Asserter) fail(ctx context.Context, scope Scope, expectation string, missing []string) error {
	if expectation == "" {
		expectation = "expected content not shown"
	}
	aerr := &AssertionError{
		Expectation: expectation,
		Missing:     missing,
		Timeout:     a.timeout,
		URL:         scope.URL(),
		Excerpt:     a.excerpt(ctx, scope),
	}
	a.logger.Errorf("%v", aerr)
	if aerr.Excerpt != "" {
		a.logger.Debugf("page text: %s", aerr.Excerpt)
	}
	return aerr
}

func (a *Asserter) excerpt(ctx context.Context, scope Scope) string {
	content, err := boundedValue(ctx, a.interval, scope.Content, nil)
	if err != nil {
		a.logger.Debugf("no page content for excerpt: %v", err)
		return ""
	}
	text, err := ExtractVisibleText(content, DefaultExcerptLength)
	if err != nil {
		return ""
	}
	return text.Text
}
