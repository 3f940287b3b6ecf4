package flow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/browser/browsertest"
	"github.com/entrhq/uiflow/pkg/flow"
)

func clickPath(label string) flow.Alternate {
	return flow.Path(label, func(ctx context.Context, r *flow.Run) error {
		return r.Click(ctx, browser.Text(label))
	})
}

// runBody runs body in a fresh session and returns the outcome.
func runBody(t *testing.T, setup func(p *browsertest.Page), body func(ctx context.Context, r *flow.Run) error) (flow.Outcome, *browsertest.Launcher) {
	t.Helper()
	r, l := newRunner(t, setup)
	out := r.RunScenario(context.Background(), flow.Scenario{Name: t.Name(), Body: body})
	return out, l
}

func TestFirstOf_PrimarySucceeds(t *testing.T) {
	var chosen string
	out, l := runBody(t, func(p *browsertest.Page) {
		p.AddText("Get Started", "Sign In")
	}, func(ctx context.Context, r *flow.Run) (err error) {
		chosen, err = r.FirstOf(ctx, clickPath("Get Started"), clickPath("Sign In"))
		return err
	})

	require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
	assert.Equal(t, "Get Started", chosen)
	assert.Empty(t, out.Flags)
	p := page(t, l)
	assert.Equal(t, 1, p.Clicks(browser.Text("Get Started")))
	assert.Zero(t, p.Clicks(browser.Text("Sign In")))
}

func TestFirstOf_FallsBackOnApplicationFailure(t *testing.T) {
	var chosen string
	out, l := runBody(t, func(p *browsertest.Page) {
		p.AddText("Sign In")
	}, func(ctx context.Context, r *flow.Run) (err error) {
		chosen, err = r.FirstOf(ctx, clickPath("Get Started"), clickPath("Sign In"))
		return err
	})

	require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
	assert.Equal(t, "Sign In", chosen)
	require.Len(t, out.Flags, 1)
	assert.Contains(t, out.Flags[0], `fell back to "Sign In"`)
	assert.Equal(t, 1, page(t, l).Clicks(browser.Text("Sign In")))

	require.Len(t, out.Steps, 2)
	assert.Equal(t, browser.StepNotFound, out.Steps[0].Status)
	assert.True(t, out.Steps[1].OK())
}

func TestFirstOf_AllPathsFail(t *testing.T) {
	out, _ := runBody(t, nil, func(ctx context.Context, r *flow.Run) error {
		_, err := r.FirstOf(ctx, clickPath("Get Started"), clickPath("Sign In"), flow.Path("assert", func(ctx context.Context, r *flow.Run) error {
			return r.Expect(ctx, browser.Expect("Initialize Session", "login form not shown"))
		}))
		return err
	})

	assert.Equal(t, flow.VerdictFail, out.Verdict)
	var fe *flow.FallbackError
	require.ErrorAs(t, out.Err, &fe)
	require.Len(t, fe.Attempts, 3)
	assert.Equal(t, []string{"Get Started", "Sign In", "assert"}, []string{fe.Attempts[0].Name, fe.Attempts[1].Name, fe.Attempts[2].Name})
	var ae *browser.AssertionError
	assert.ErrorAs(t, out.Err, &ae)
}

func TestFirstOf_StopsOnHarnessFailure(t *testing.T) {
	secondRan := false
	out, _ := runBody(t, func(p *browsertest.Page) {
		p.AddText("Sign In")
	}, func(ctx context.Context, r *flow.Run) error {
		_, err := r.FirstOf(ctx,
			flow.Path("crash", func(ctx context.Context, r *flow.Run) error {
				r.Page().(*browsertest.Page).Crash()
				return r.Click(ctx, browser.Text("Get Started"))
			}),
			flow.Path("Sign In", func(ctx context.Context, r *flow.Run) error {
				secondRan = true
				return nil
			}),
		)
		return err
	})

	assert.False(t, secondRan)
	assert.Equal(t, flow.VerdictInfra, out.Verdict)
	assert.ErrorIs(t, out.Err, browser.ErrTargetClosed)
}

func TestFirstOf_PathLimits(t *testing.T) {
	var errs []error
	out, _ := runBody(t, nil, func(ctx context.Context, r *flow.Run) error {
		noop := flow.Path("noop", func(context.Context, *flow.Run) error { return nil })

		_, err := r.FirstOf(ctx)
		errs = append(errs, err)

		paths := make([]flow.Alternate, flow.MaxAlternates+2)
		for i := range paths {
			paths[i] = noop
		}
		_, err = r.FirstOf(ctx, paths...)
		errs = append(errs, err)

		_, err = r.FirstOf(ctx, paths[:flow.MaxAlternates+1]...)
		errs = append(errs, err)
		return nil
	})

	require.Equal(t, flow.VerdictPass, out.Verdict)
	require.Len(t, errs, 3)
	assert.ErrorContains(t, errs[0], "at least one path")
	assert.ErrorContains(t, errs[1], fmt.Sprintf("at most %d paths", flow.MaxAlternates+1))
	assert.NoError(t, errs[2])
}

func TestRun_StepsAndLoadsAreRecorded(t *testing.T) {
	var loads []browser.LoadReport
	out, _ := runBody(t, func(p *browsertest.Page) {
		p.AddText("New Deal")
	}, func(ctx context.Context, r *flow.Run) error {
		if _, err := r.Goto(ctx, "/#/"); err != nil {
			return err
		}
		if err := r.ScrollBy(ctx, 0, 400); err != nil {
			return err
		}
		if err := r.WaitVisible(ctx, browser.Text("New Deal"), 0); err != nil {
			return err
		}
		loads = r.Loads()
		return r.Click(ctx, browser.Text("New Deal"))
	})

	require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
	require.Len(t, loads, 1)
	assert.Equal(t, baseURL+"/#/", loads[0].URL)
	require.Len(t, out.Steps, 3)
	assert.Equal(t, browser.ActionScroll, out.Steps[0].Action.Kind)
	assert.Equal(t, browser.ActionWaitVisible, out.Steps[1].Action.Kind)
	assert.Equal(t, browser.ActionClick, out.Steps[2].Action.Kind)
}
