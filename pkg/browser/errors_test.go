package browser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/uiflow/pkg/browser"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "launch",
			err:  &browser.LaunchError{ExecutablePath: "/opt/chrome", Err: errors.New("no such file")},
			want: "failed to launch browser /opt/chrome: no such file",
		},
		{
			name: "navigation",
			err:  &browser.NavigationError{URL: "http://localhost:3000/#/landing", Timeout: 10 * time.Second, Err: errors.New("refused")},
			want: "navigation to http://localhost:3000/#/landing not committed within 10s: refused",
		},
		{
			name: "step",
			err: &browser.StepError{Result: browser.StepResult{
				Action:   browser.Click(),
				Selector: browser.Text("Get Started"),
				Status:   browser.StepNotFound,
				Elapsed:  5 * time.Second,
			}},
			want: `click on text "Get Started" element not found after 5s`,
		},
		{
			name: "assertion",
			err: &browser.AssertionError{
				Expectation: "analysis not produced",
				Missing:     []string{"Analysis Complete"},
				Timeout:     30 * time.Second,
				URL:         "http://localhost:3000/#/deal/1",
			},
			want: `analysis not produced: expected "Analysis Complete" within 30s at http://localhost:3000/#/deal/1`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestCleanupErrorUnwrapsAll(t *testing.T) {
	a, b := errors.New("context"), errors.New("browser")
	err := &browser.CleanupError{Errs: []error{a, b}}
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}
