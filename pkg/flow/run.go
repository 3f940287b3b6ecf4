package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/logging"
)

// MaxAlternates caps the fallback paths FirstOf accepts after the primary.
const MaxAlternates = 3

// Credentials are the login used by flows that need an account.
type Credentials struct {
	Email    string
	Password string
}

// Alternate is one route to a state, tried by FirstOf.
type Alternate struct {
	Name string
	Do   func(ctx context.Context, r *Run) error
}

// Path is shorthand for building an Alternate.
func Path(name string, do func(ctx context.Context, r *Run) error) Alternate {
	return Alternate{Name: name, Do: do}
}

// Run is the handle a scenario body drives the browser through. It belongs
// to one scenario and must not be shared between goroutines.
type Run struct {
	scenario string
	baseURL  string
	creds    Credentials
	settle   time.Duration

	bctx     *browser.Context
	nav      *browser.Navigator
	exec     *browser.Executor
	asserter *browser.Asserter
	logger   *logging.Logger

	steps []browser.StepResult
	loads []browser.LoadReport
	flags []string
}

// URL joins a hash route or path onto the base URL. Absolute URLs are
// returned unchanged.
func (r *Run) URL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if path == "" {
		return r.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(r.baseURL, "/") + path
}

// Page returns the current page.
func (r *Run) Page() browser.Page {
	return r.bctx.Page()
}

// Credentials returns the configured login.
func (r *Run) Credentials() Credentials {
	return r.creds
}

// Goto loads path and waits for it to stabilise. Only a navigation that is
// never committed is an error; degraded frames are flagged.
func (r *Run) Goto(ctx context.Context, path string) (browser.LoadReport, error) {
	report, err := r.nav.Load(ctx, r.Page(), r.URL(path))
	if err != nil {
		return report, err
	}
	r.loads = append(r.loads, report)
	if !report.Page.Stable {
		r.Flag(fmt.Sprintf("page %s did not reach DOMContentLoaded: %v", report.URL, report.Page.Err))
	}
	for _, f := range report.DegradedFrames() {
		r.Flag(fmt.Sprintf("frame %q (%s) did not stabilise: %v", f.Name, f.URL, f.Err))
	}
	return report, nil
}

// Click clicks sel.
func (r *Run) Click(ctx context.Context, sel browser.Selector) error {
	return r.act(ctx, r.Page(), sel, browser.Click(), 0).Error()
}

// Fill replaces the value of sel with text.
func (r *Run) Fill(ctx context.Context, sel browser.Selector, text string) error {
	return r.act(ctx, r.Page(), sel, browser.Fill(text), 0).Error()
}

// ScrollBy sends a wheel delta to the page.
func (r *Run) ScrollBy(ctx context.Context, dx, dy float64) error {
	return r.act(ctx, r.Page(), browser.Selector{}, browser.ScrollBy(dx, dy), 0).Error()
}

// Evaluate runs expr on the page and returns its value.
func (r *Run) Evaluate(ctx context.Context, expr string) (any, error) {
	res := r.act(ctx, r.Page(), browser.Selector{}, browser.Evaluate(expr), 0)
	return res.Value, res.Error()
}

// WaitVisible waits for sel with the given budget; zero uses the step
// timeout.
func (r *Run) WaitVisible(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	return r.act(ctx, r.Page(), sel, browser.WaitVisible(), timeout).Error()
}

// Pause waits d. The pause is its own budget, not capped by the step
// timeout.
func (r *Run) Pause(ctx context.Context, d time.Duration) error {
	return r.act(ctx, r.Page(), browser.Selector{}, browser.Pause(d), d).Error()
}

// Settle waits the configured settle delay that recorded flows leave
// between steps.
func (r *Run) Settle(ctx context.Context) error {
	if r.settle <= 0 {
		return nil
	}
	return r.Pause(ctx, r.settle)
}

// Act runs an arbitrary action, e.g. against a frame.
func (r *Run) Act(ctx context.Context, scope browser.Scope, sel browser.Selector, action browser.Action, timeout time.Duration) browser.StepResult {
	return r.act(ctx, scope, sel, action, timeout)
}

// Expect asserts that every marker becomes visible on the page.
func (r *Run) Expect(ctx context.Context, markers ...browser.Marker) error {
	return r.asserter.AssertAllVisible(ctx, r.Page(), markers...)
}

// ExpectTrue asserts that expr becomes true on the page.
func (r *Run) ExpectTrue(ctx context.Context, expr, expectation string) error {
	return r.asserter.AssertTrue(ctx, r.Page(), expr, expectation)
}

// SetViewport resizes the page.
func (r *Run) SetViewport(v browser.Viewport) error {
	if err := r.Page().SetViewport(v); err != nil {
		return fmt.Errorf("resize to %s: %w", v, err)
	}
	r.logger.Debugf("viewport %s", v)
	return nil
}

// FirstOf tries paths in order and returns the name of the first that
// succeeds. A path that fails like the application would (step or
// assertion failure) moves on to the next; a harness failure stops at
// once. When every path fails the error is a *FallbackError.
func (r *Run) FirstOf(ctx context.Context, paths ...Alternate) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("FirstOf needs at least one path")
	}
	if len(paths) > MaxAlternates+1 {
		return "", fmt.Errorf("FirstOf accepts at most %d paths, got %d", MaxAlternates+1, len(paths))
	}

	var attempts []Attempt
	for i, p := range paths {
		err := p.Do(ctx, r)
		if err == nil {
			if i > 0 {
				r.Flag(fmt.Sprintf("fell back to %q after %d failed path(s)", p.Name, i))
			}
			return p.Name, nil
		}
		if !recoverable(err) {
			return "", err
		}
		r.logger.Infof("path %q failed, %d left: %v", p.Name, len(paths)-i-1, err)
		attempts = append(attempts, Attempt{Name: p.Name, Err: err})
	}
	return "", &FallbackError{Attempts: attempts}
}

// Flag records something the report should surface without failing the
// scenario.
func (r *Run) Flag(note string) {
	r.flags = append(r.flags, note)
	r.logger.Warnf("%s", note)
}

// Steps returns every step performed so far.
func (r *Run) Steps() []browser.StepResult {
	return append([]browser.StepResult(nil), r.steps...)
}

// Loads returns every completed page load.
func (r *Run) Loads() []browser.LoadReport {
	return append([]browser.LoadReport(nil), r.loads...)
}

// Flags returns the notes recorded with Flag.
func (r *Run) Flags() []string {
	return append([]string(nil), r.flags...)
}

func (r *Run) act(ctx context.Context, scope browser.Scope, sel browser.Selector, action browser.Action, timeout time.Duration) browser.StepResult {
	res := r.exec.Act(ctx, scope, sel, action, timeout)
	r.steps = append(r.steps, res)
	return res
}
