// Package report turns scenario outcomes into a console summary and run
// artifacts.
package report

import (
	"errors"
	"time"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/flow"
)

// Report is one run of one or more scenarios.
type Report struct {
	RunID     string           `json:"run_id"`
	BaseURL   string           `json:"base_url"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Totals    Totals           `json:"totals"`
	ExitCode  int              `json:"exit_code"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Totals counts scenarios per verdict.
type Totals struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Infra  int `json:"infra_errors"`
}

// ScenarioResult is the serialisable form of a flow.Outcome.
type ScenarioResult struct {
	Name     string        `json:"name"`
	Verdict  flow.Verdict  `json:"verdict"`
	Reason   string        `json:"reason,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	Expectation string   `json:"expectation,omitempty"`
	Missing     []string `json:"missing,omitempty"`
	PageURL     string   `json:"page_url,omitempty"`
	PageText    string   `json:"page_text,omitempty"`

	Steps          []StepRecord  `json:"steps,omitempty"`
	DegradedFrames []FrameRecord `json:"degraded_frames,omitempty"`
	Flags          []string      `json:"flags,omitempty"`
	Notes          []string      `json:"notes,omitempty"`
	Cleanup        string        `json:"cleanup_error,omitempty"`
}

// StepRecord is one executed step.
type StepRecord struct {
	Action  string        `json:"action"`
	Target  string        `json:"target,omitempty"`
	Status  string        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// FrameRecord is a frame that did not stabilise.
type FrameRecord struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// New builds a report from outcomes.
func New(runID, baseURL string, start time.Time, outcomes []flow.Outcome) *Report {
	end := time.Now()
	s := flow.Summarize(outcomes)
	r := &Report{
		RunID:     runID,
		BaseURL:   baseURL,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Totals:    Totals{Total: s.Total, Passed: s.Passed, Failed: s.Failed, Infra: s.Infra},
		ExitCode:  flow.ExitCode(outcomes),
		Scenarios: make([]ScenarioResult, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		r.Scenarios = append(r.Scenarios, scenarioResult(o))
	}
	return r
}

func scenarioResult(o flow.Outcome) ScenarioResult {
	res := ScenarioResult{
		Name:     o.Scenario,
		Verdict:  o.Verdict,
		Reason:   o.Reason,
		Started:  o.Started,
		Duration: o.Duration,
		Flags:    o.Flags,
		Notes:    o.Notes,
	}

	var ae *browser.AssertionError
	if errors.As(o.Err, &ae) {
		res.Expectation = ae.Expectation
		res.Missing = ae.Missing
		res.PageURL = ae.URL
		res.PageText = ae.Excerpt
	}

	for _, st := range o.Steps {
		rec := StepRecord{
			Action:  st.Action.String(),
			Status:  st.Status.String(),
			Elapsed: st.Elapsed,
		}
		if !st.Selector.IsZero() {
			rec.Target = st.Selector.Describe()
		}
		if st.Err != nil {
			rec.Error = st.Err.Error()
		}
		res.Steps = append(res.Steps, rec)
	}

	if o.Load != nil {
		for _, f := range o.Load.DegradedFrames() {
			rec := FrameRecord{Name: f.Name, URL: f.URL}
			if f.Err != nil {
				rec.Error = f.Err.Error()
			}
			res.DegradedFrames = append(res.DegradedFrames, rec)
		}
	}

	if o.Cleanup != nil {
		res.Cleanup = o.Cleanup.Error()
	}
	return res
}
