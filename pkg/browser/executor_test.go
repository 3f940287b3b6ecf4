package browser_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/browser/browsertest"
)

func newExecutor() *browser.Executor {
	return browser.NewExecutor(fastTimeouts(), nil)
}

func TestAct_Click(t *testing.T) {
	page := browsertest.NewPage()
	signIn := browser.Text("Sign In")
	page.Add(signIn, browsertest.Element{Text: "Sign In"})

	res := newExecutor().Act(context.Background(), page, signIn, browser.Click(), 0)
	require.True(t, res.OK(), "%v", res.Err)
	assert.NoError(t, res.Error())
	assert.Equal(t, 1, page.Clicks(signIn))
	assert.Equal(t, browser.StepSucceeded, res.Status)
}

func TestAct_Fill(t *testing.T) {
	page := browsertest.NewPage()
	email := browser.CSS("#email")
	page.Add(email, browsertest.Element{})

	res := newExecutor().Act(context.Background(), page, email, browser.Fill("testsprite_user@creator.os"), 0)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, "testsprite_user@creator.os", page.Value(email))
}

func TestAct_Statuses(t *testing.T) {
	target := browser.Text("Confirm & Start")

	tests := []struct {
		name   string
		setup  func(p *browsertest.Page)
		action browser.Action
		want   browser.StepStatus
	}{
		{
			name:   "click on missing element",
			setup:  func(*browsertest.Page) {},
			action: browser.Click(),
			want:   browser.StepNotFound,
		},
		{
			name:   "fill on missing element",
			setup:  func(*browsertest.Page) {},
			action: browser.Fill("x"),
			want:   browser.StepNotFound,
		},
		{
			name: "click on attached but hidden element",
			setup: func(p *browsertest.Page) {
				p.Add(target, browsertest.Element{Hidden: true})
			},
			action: browser.Click(),
			want:   browser.StepTimedOut,
		},
		{
			name:   "wait for missing element",
			setup:  func(*browsertest.Page) {},
			action: browser.WaitVisible(),
			want:   browser.StepNotFound,
		},
		{
			name: "wait for hidden element",
			setup: func(p *browsertest.Page) {
				p.Add(target, browsertest.Element{Hidden: true})
			},
			action: browser.WaitVisible(),
			want:   browser.StepTimedOut,
		},
		{
			name: "click rejected by the page",
			setup: func(p *browsertest.Page) {
				p.Add(target, browsertest.Element{ClickErr: errors.New("element is not enabled")})
			},
			action: browser.Click(),
			want:   browser.StepFailed,
		},
		{
			name:   "click after renderer crash",
			setup:  func(p *browsertest.Page) { p.Crash() },
			action: browser.Click(),
			want:   browser.StepFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.NewPage()
			tt.setup(page)

			res := newExecutor().Act(context.Background(), page, target, tt.action, 80*time.Millisecond)
			assert.Equal(t, tt.want, res.Status, "err: %v", res.Err)

			var stepErr *browser.StepError
			require.ErrorAs(t, res.Error(), &stepErr)
			assert.Equal(t, tt.want, stepErr.Result.Status)
			assert.Contains(t, stepErr.Error(), `text "Confirm & Start"`)
		})
	}
}

func TestAct_CrashIsTargetClosed(t *testing.T) {
	page := browsertest.NewPage()
	page.Crash()
	res := newExecutor().Act(context.Background(), page, browser.Text("Sign In"), browser.Click(), 0)
	assert.ErrorIs(t, res.Error(), browser.ErrTargetClosed)
}

func TestAct_ResolvesLocatorEveryCall(t *testing.T) {
	page := browsertest.NewPage()
	button := browser.Text("New Deal")
	exec := newExecutor()

	var first, second int
	page.Add(button, browsertest.Element{OnClick: func(*browsertest.Page) { first++ }})
	require.True(t, exec.Act(context.Background(), page, button, browser.Click(), 0).OK())

	// re-render: the old node is gone and a new one takes its place
	page.Remove(button)
	page.Add(button, browsertest.Element{OnClick: func(*browsertest.Page) { second++ }})
	require.True(t, exec.Act(context.Background(), page, button, browser.Click(), 0).OK())

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestAct_WaitsForLateElement(t *testing.T) {
	page := browsertest.NewPage()
	button := browser.Text("Initialize Session")
	page.Add(button, browsertest.Element{Delay: 40 * time.Millisecond})

	res := newExecutor().Act(context.Background(), page, button, browser.Click(), 500*time.Millisecond)
	require.True(t, res.OK(), "%v", res.Err)
	assert.GreaterOrEqual(t, res.Elapsed, 40*time.Millisecond)
}

func TestAct_Evaluate(t *testing.T) {
	page := browsertest.NewPage()
	page.OnEvaluate(func(expr string) (any, bool, error) {
		if expr == "document.title" {
			return "Creator OS", true, nil
		}
		return nil, false, nil
	})

	res := newExecutor().Act(context.Background(), page, browser.Selector{}, browser.Evaluate("document.title"), 0)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, "Creator OS", res.Value)

	res = newExecutor().Act(context.Background(), page, browser.Selector{}, browser.Evaluate("window.missing()"), 0)
	assert.Equal(t, browser.StepFailed, res.Status)
}

func TestAct_NeedsSelector(t *testing.T) {
	res := newExecutor().Act(context.Background(), browsertest.NewPage(), browser.Selector{}, browser.Click(), 0)
	assert.Equal(t, browser.StepFailed, res.Status)
	assert.ErrorContains(t, res.Err, "needs a selector")
}

func TestAct_ScrollNeedsPage(t *testing.T) {
	page := browsertest.NewPage()
	frame := page.AddFrame("ads", "https://ads.example/")

	res := newExecutor().Act(context.Background(), frame, browser.Selector{}, browser.ScrollBy(0, 300), 0)
	assert.Equal(t, browser.StepFailed, res.Status)
}

func TestAct_Pause(t *testing.T) {
	res := newExecutor().Act(context.Background(), browsertest.NewPage(), browser.Selector{}, browser.Pause(20*time.Millisecond), 0)
	require.True(t, res.OK())
	assert.GreaterOrEqual(t, res.Elapsed, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = newExecutor().Act(ctx, browsertest.NewPage(), browser.Selector{}, browser.Pause(time.Second), 0)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestAct_PauseIsCappedAtTimeout(t *testing.T) {
	start := time.Now()
	res := newExecutor().Act(context.Background(), browsertest.NewPage(), browser.Selector{}, browser.Pause(5*time.Second), 50*time.Millisecond)
	require.True(t, res.OK())
	assert.Less(t, time.Since(start), time.Second)

	// the step default applies when no timeout is given
	start = time.Now()
	res = newExecutor().Act(context.Background(), browsertest.NewPage(), browser.Selector{}, browser.Pause(5*time.Second), 0)
	require.True(t, res.OK())
	assert.Less(t, time.Since(start), time.Second)
}

func TestAct_HungDriverStillReturns(t *testing.T) {
	page := browsertest.NewPage()
	page.HangWheel(3 * time.Second)

	start := time.Now()
	res := newExecutor().Act(context.Background(), page, browser.Selector{}, browser.ScrollBy(0, 300), 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, browser.StepTimedOut, res.Status)
	assert.ErrorIs(t, res.Err, browser.ErrDriverTimeout)
	assert.Less(t, elapsed, 50*time.Millisecond+250*time.Millisecond+200*time.Millisecond)
}

func TestAct_BoundedByTimeout(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		timeout := time.Duration(rapid.IntRange(5, 60).Draw(t, "timeoutMs")) * time.Millisecond
		action := rapid.SampledFrom([]browser.Action{
			browser.Click(), browser.Fill("brief"), browser.WaitVisible(),
		}).Draw(t, "action")

		page := browsertest.NewPage()
		start := time.Now()
		res := newExecutor().Act(context.Background(), page, browser.Text("never rendered"), action, timeout)
		elapsed := time.Since(start)

		if res.OK() {
			t.Fatalf("%s on a missing element succeeded", action)
		}
		// the element count that tells missing from slow has its own small budget
		limit := timeout + time.Second + 150*time.Millisecond
		if elapsed > limit {
			t.Fatalf("%s with timeout %v took %v", action, timeout, elapsed)
		}
	})
}

func TestScrollBy_RoundTrip(t *testing.T) {
	page := browsertest.NewPage()
	page.SetScroll(0, 0, 10000)
	exec := newExecutor()

	require.True(t, exec.Act(context.Background(), page, browser.Selector{}, browser.ScrollBy(0, 300), 0).OK())
	_, y := page.Scroll()
	assert.Equal(t, 300.0, y)

	require.True(t, exec.Act(context.Background(), page, browser.Selector{}, browser.ScrollBy(0, -300), 0).OK())
	x, y := page.Scroll()
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestScrollBy_DeltasAreCumulativeAndReversible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const origin, limit = 50000.0, 100000.0
		page := browsertest.NewPage()
		page.SetScroll(origin, origin, limit)
		exec := newExecutor()

		dys := rapid.SliceOfN(rapid.IntRange(-1000, 1000), 1, 20).Draw(t, "dys")
		dxs := rapid.SliceOfN(rapid.IntRange(-200, 200), len(dys), len(dys)).Draw(t, "dxs")

		wantX, wantY := origin, origin
		for i := range dys {
			res := exec.Act(context.Background(), page, browser.Selector{}, browser.ScrollBy(float64(dxs[i]), float64(dys[i])), 0)
			if !res.OK() {
				t.Fatalf("scroll failed: %v", res.Err)
			}
			wantX += float64(dxs[i])
			wantY += float64(dys[i])
		}
		x, y := page.Scroll()
		if math.Abs(x-wantX) > 0.5 || math.Abs(y-wantY) > 0.5 {
			t.Fatalf("offset (%v,%v), want (%v,%v)", x, y, wantX, wantY)
		}

		for i := len(dys) - 1; i >= 0; i-- {
			exec.Act(context.Background(), page, browser.Selector{}, browser.ScrollBy(-float64(dxs[i]), -float64(dys[i])), 0)
		}
		x, y = page.Scroll()
		if math.Abs(x-origin) > 0.5 || math.Abs(y-origin) > 0.5 {
			t.Fatalf("offset (%v,%v) after reversing, want (%v,%v)", x, y, origin, origin)
		}
	})
}

func TestActionStrings(t *testing.T) {
	assert.Equal(t, "click", browser.Click().String())
	assert.Equal(t, "fill(5 chars)", browser.Fill("brief").String())
	assert.Equal(t, "scroll(0,-300)", browser.ScrollBy(0, -300).String())
	assert.Equal(t, "pause(3s)", browser.Pause(3*time.Second).String())
	assert.Equal(t, "element not found", browser.StepNotFound.String())
	assert.Equal(t, "timed out", browser.StepTimedOut.String())
}
