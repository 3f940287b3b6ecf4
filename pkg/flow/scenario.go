package flow

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/uiflow/pkg/browser"
)

// Scenario is one end-to-end user journey.
type Scenario struct {
	Name        string
	Description string
	// Start is loaded before Body runs; empty leaves the page blank.
	Start string
	Tags  []string
	// Viewport overrides the session viewport when set.
	Viewport browser.Viewport
	// Notes are surfaced in the report, e.g. where an expectation was
	// changed from a recorded flow.
	Notes []string
	Body  func(ctx context.Context, r *Run) error
}

// Validate reports structural problems in the scenario.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Body == nil {
		return fmt.Errorf("scenario %s has no body", s.Name)
	}
	return nil
}

// Select returns the scenarios whose name or tags match any of the glob
// patterns, keeping their order. No patterns selects everything.
func Select(scenarios []Scenario, patterns []string) ([]Scenario, error) {
	if len(patterns) == 0 {
		return scenarios, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		globs = append(globs, g)
	}

	var selected []Scenario
	for _, s := range scenarios {
		if matchesAny(globs, s) {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

func matchesAny(globs []glob.Glob, s Scenario) bool {
	for _, g := range globs {
		if g.Match(s.Name) {
			return true
		}
		for _, tag := range s.Tags {
			if g.Match(tag) {
				return true
			}
		}
	}
	return false
}
