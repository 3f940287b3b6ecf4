package flow_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/browser/browsertest"
	"github.com/entrhq/uiflow/pkg/flow"
)

const loginScript = `
name: login
description: Sign in from the landing page
start: /#/landing
tags: [auth, smoke]
viewport: {width: 375, height: 812}
steps:
  - click: {text: "Get Started"}
    timeout: 100ms
    alternates:
      - click: {text: "Sign In"}
      - goto: /#/login
  - fill: {css: "#email", value: "user@example.com"}
  - fill: {css: "#password", value: "secret"}
  - click: {text: "Initialize Session", exact: true}
  - pause: 10ms
expect:
  - text: "New Deal"
    expectation: "dashboard not shown after login"
`

func TestParseScript(t *testing.T) {
	s, err := flow.ParseScript(strings.NewReader(loginScript))
	require.NoError(t, err)

	assert.Equal(t, "login", s.Name)
	assert.Equal(t, "/#/landing", s.Start)
	assert.Equal(t, []string{"auth", "smoke"}, s.Tags)
	require.Len(t, s.Steps, 5)
	assert.Equal(t, 100*time.Millisecond, s.Steps[0].Timeout)
	require.Len(t, s.Steps[0].Alternates, 2)
	assert.Equal(t, "/#/login", s.Steps[0].Alternates[1].Goto)
	assert.Equal(t, "#email", s.Steps[1].Fill.CSS)
	assert.Equal(t, "user@example.com", s.Steps[1].Fill.Value)
	assert.True(t, s.Steps[3].Click.Exact)
	assert.Equal(t, 10*time.Millisecond, s.Steps[4].Pause)
	require.Len(t, s.Expect, 1)
	assert.Equal(t, "dashboard not shown after login", s.Expect[0].Expectation)

	sc := s.Scenario()
	assert.Equal(t, browser.ViewportMobile, sc.Viewport)
	assert.NoError(t, sc.Validate())
}

func TestParseScript_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "script is empty"},
		{"no name", "steps: [{goto: /}]", "name is required"},
		{"no steps", "name: x", "no steps and no expectations"},
		{"unknown key", "name: x\nsteps: [{tap: {text: a}}]", "field tap not found"},
		{"two actions", "name: x\nsteps: [{goto: /, click: {text: a}}]", "exactly one action allowed, got goto, click"},
		{"no action", "name: x\nsteps: [{timeout: 1s}]", "no action given"},
		{"target without selector", "name: x\nsteps: [{click: {}}]", "exactly one of text, css or xpath"},
		{"two selectors", "name: x\nsteps: [{click: {text: a, css: b}}]", "exactly one of text, css or xpath"},
		{"exact on css", "name: x\nsteps: [{click: {css: b, exact: true}}]", "exact only applies to text targets"},
		{"nested alternates", "name: x\nsteps:\n  - click: {text: a}\n    alternates:\n      - click: {text: b}\n        alternates: [{click: {text: c}}]", "alternates cannot be nested"},
		{"too many alternates", "name: x\nsteps:\n  - click: {text: a}\n    alternates: [{goto: /1}, {goto: /2}, {goto: /3}, {goto: /4}]", "at most 3 alternates"},
		{"bad expectation", "name: x\nexpect: [{text: a, eval: b}]", "exactly one of text or eval"},
		{"bad viewport", "name: x\nviewport: {width: 0, height: 10}\nsteps: [{goto: /}]", "viewport must be positive"},
		{"bad duration", "name: x\nsteps: [{pause: soon}]", "failed to parse script"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.ParseScript(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "login.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loginScript), 0600))

	s, err := flow.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "login", s.Name)

	_, err = flow.LoadScript(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open script")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x"), 0600))
	_, err = flow.LoadScript(bad)
	assert.ErrorContains(t, err, bad)
}

// loginApp wires a fake landing page where only the route picked by
// entry leads to the login form.
func loginApp(entry string) func(p *browsertest.Page) {
	showLogin := func(p *browsertest.Page) {
		p.Add(browser.CSS("#email"), browsertest.Element{})
		p.Add(browser.CSS("#password"), browsertest.Element{})
		p.Add(browser.ExactText("Initialize Session"), browsertest.Element{
			Text: "Initialize Session",
			OnClick: func(p *browsertest.Page) {
				p.AddText("New Deal")
			},
		})
	}
	return func(p *browsertest.Page) {
		p.OnGoto(func(p *browsertest.Page, url string) {
			if strings.HasSuffix(url, "/#/login") {
				showLogin(p)
			}
		})
		if entry != "" {
			p.Add(browser.Text(entry), browsertest.Element{Text: entry, OnClick: showLogin})
		}
	}
}

func TestScriptScenario_Runs(t *testing.T) {
	s, err := flow.ParseScript(strings.NewReader(loginScript))
	require.NoError(t, err)

	tests := []struct {
		name     string
		entry    string
		flags    int
		gotoCall int
	}{
		{"primary path", "Get Started", 0, 1},
		{"first alternate", "Sign In", 1, 1},
		{"direct route", "", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, l := newRunner(t, loginApp(tt.entry))

			out := r.RunScenario(context.Background(), s.Scenario())

			require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
			assert.Len(t, out.Flags, tt.flags)
			p := page(t, l)
			assert.Equal(t, "user@example.com", p.Value(browser.CSS("#email")))
			assert.Equal(t, "secret", p.Value(browser.CSS("#password")))
			assert.Equal(t, tt.gotoCall, p.GotoCalls())
		})
	}
}

func TestScriptScenario_FailsOnMissingOutcome(t *testing.T) {
	s, err := flow.ParseScript(strings.NewReader(`
name: analysis
steps:
  - evaluate: "window.scrollY"
expect:
  - text: "Analysis Complete"
    expectation: "analysis not produced"
`))
	require.NoError(t, err)
	r, _ := newRunner(t, nil)

	out := r.RunScenario(context.Background(), s.Scenario())

	assert.Equal(t, flow.VerdictFail, out.Verdict)
	var ae *browser.AssertionError
	require.ErrorAs(t, out.Err, &ae)
	assert.Equal(t, "analysis not produced", ae.Expectation)
	assert.Equal(t, []string{"Analysis Complete"}, ae.Missing)
}

func TestScriptScenario_EvalExpectation(t *testing.T) {
	s, err := flow.ParseScript(strings.NewReader(`
name: disabled-submit
steps:
  - viewport: {width: 768, height: 1024}
  - expect:
      - eval: "document.querySelector('button').disabled"
        expectation: "submit enabled without input"
`))
	require.NoError(t, err)
	r, l := newRunner(t, func(p *browsertest.Page) {
		p.OnEvaluate(func(expr string) (any, bool, error) {
			if strings.Contains(expr, "disabled") {
				return true, true, nil
			}
			return nil, false, nil
		})
	})

	out := r.RunScenario(context.Background(), s.Scenario())

	require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
	assert.Equal(t, []browser.Viewport{browser.ViewportTablet}, page(t, l).Viewports())
}

func TestScriptScenario_PauseHonoursStepTimeout(t *testing.T) {
	s, err := flow.ParseScript(strings.NewReader(`
name: capped-pause
steps:
  - pause: 10s
    timeout: 30ms
  - pause: 20ms
`))
	require.NoError(t, err)
	r, _ := newRunner(t, nil)

	start := time.Now()
	out := r.RunScenario(context.Background(), s.Scenario())

	require.Equal(t, flow.VerdictPass, out.Verdict, out.Reason)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, out.Steps, 2)
	assert.GreaterOrEqual(t, out.Steps[1].Elapsed, 20*time.Millisecond, "a pause without timeout runs in full")
}
