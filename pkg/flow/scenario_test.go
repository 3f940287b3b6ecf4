package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiflow/pkg/flow"
)

func noopBody(context.Context, *flow.Run) error { return nil }

func names(scenarios []flow.Scenario) []string {
	out := make([]string, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Name
	}
	return out
}

func TestSelect(t *testing.T) {
	all := []flow.Scenario{
		{Name: "landing-responsive", Tags: []string{"landing", "smoke"}, Body: noopBody},
		{Name: "brief-translator-analysis", Tags: []string{"brief"}, Body: noopBody},
		{Name: "brief-translator-empty-input", Tags: []string{"brief", "validation"}, Body: noopBody},
		{Name: "deal-form-validation", Tags: []string{"deal", "validation"}, Body: noopBody},
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns selects all", nil, names(all)},
		{"exact name", []string{"deal-form-validation"}, []string{"deal-form-validation"}},
		{"name glob", []string{"brief-*"}, []string{"brief-translator-analysis", "brief-translator-empty-input"}},
		{"tag", []string{"validation"}, []string{"brief-translator-empty-input", "deal-form-validation"}},
		{"several patterns keep order", []string{"deal-*", "smoke"}, []string{"landing-responsive", "deal-form-validation"}},
		{"nothing matches", []string{"checkout*"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Select(all, tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSelect_InvalidPattern(t *testing.T) {
	_, err := flow.Select(nil, []string{"[unterminated"})
	assert.ErrorContains(t, err, "invalid pattern '[unterminated'")
}

func TestScenario_Validate(t *testing.T) {
	assert.NoError(t, flow.Scenario{Name: "ok", Body: noopBody}.Validate())
	assert.ErrorContains(t, flow.Scenario{Body: noopBody}.Validate(), "name is required")
	assert.ErrorContains(t, flow.Scenario{Name: "x"}.Validate(), "has no body")
}
