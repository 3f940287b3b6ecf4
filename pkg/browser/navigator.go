package browser

import (
	"context"
	"time"

	"github.com/entrhq/uiflow/pkg/config"
	"github.com/entrhq/uiflow/pkg/logging"
)

// FrameStatus records how one document fared in a stability wait.
type FrameStatus struct {
	Name    string
	URL     string
	Stable  bool
	Err     error
	Elapsed time.Duration
}

// LoadReport is the partial result of a load: the main document plus each
// frame discovered at the time of the wait.
type LoadReport struct {
	URL    string
	Page   FrameStatus
	Frames []FrameStatus
}

// Degraded reports whether the page or any frame failed to stabilise.
func (r LoadReport) Degraded() bool {
	if !r.Page.Stable {
		return true
	}
	for _, f := range r.Frames {
		if !f.Stable {
			return true
		}
	}
	return false
}

// DegradedFrames returns the frames that failed to stabilise.
func (r LoadReport) DegradedFrames() []FrameStatus {
	var out []FrameStatus
	for _, f := range r.Frames {
		if !f.Stable {
			out = append(out, f)
		}
	}
	return out
}

// Navigator loads pages and waits for a usable DOM without hanging on
// slow sub-resources.
type Navigator struct {
	logger         *logging.Logger
	commit         time.Duration
	stability      time.Duration
	frameStability time.Duration
}

// NewNavigator creates a navigator with the given budgets.
func NewNavigator(timeouts config.TimeoutSettings, logger *logging.Logger) *Navigator {
	if logger == nil {
		logger = logging.Discard()
	}
	def := config.DefaultTimeouts()
	n := &Navigator{
		logger:         logger.Named("navigator"),
		commit:         timeouts.Commit,
		stability:      timeouts.Stability,
		frameStability: timeouts.FrameStability,
	}
	if n.commit <= 0 {
		n.commit = def.Commit
	}
	if n.stability <= 0 {
		n.stability = def.Stability
	}
	if n.frameStability <= 0 {
		n.frameStability = def.FrameStability
	}
	return n
}

// Load navigates page to url and returns as soon as the navigation is
// committed, then runs WaitForStable. Only a failed commit is an error.
func (n *Navigator) Load(ctx context.Context, page Page, url string) (LoadReport, error) {
	start := time.Now()
	err := bounded(ctx, n.commit, func() error {
		return page.Goto(url, LoadCommit, n.commit)
	})
	if err != nil {
		n.logger.Errorf("navigation to %s failed after %v: %v", url, time.Since(start).Round(time.Millisecond), err)
		return LoadReport{URL: url}, &NavigationError{URL: url, Timeout: n.commit, Err: err}
	}
	n.logger.Infof("committed %s in %v", url, time.Since(start).Round(time.Millisecond))

	report := n.WaitForStable(ctx, page)
	report.URL = url
	return report, nil
}

// WaitForStable waits for DOMContentLoaded on the page and then on each
// embedded frame, each with its own budget. Failures are recorded in the
// report and logged; they never stop the flow.
func (n *Navigator) WaitForStable(ctx context.Context, page Page) LoadReport {
	report := LoadReport{URL: page.URL()}
	report.Page = n.waitScope(ctx, page, n.stability)
	if !report.Page.Stable {
		n.logger.Warnf("page %s not stable within %v: %v", report.Page.URL, n.stability, report.Page.Err)
	}

	for _, f := range page.Frames() {
		if ctx.Err() != nil {
			report.Frames = append(report.Frames, FrameStatus{Name: f.Name(), URL: f.URL(), Err: ctx.Err()})
			continue
		}
		st := n.waitScope(ctx, f, n.frameStability)
		if !st.Stable {
			n.logger.Warnf("frame %q (%s) not stable within %v: %v", st.Name, st.URL, n.frameStability, st.Err)
		}
		report.Frames = append(report.Frames, st)
	}

	n.logger.Debugf("stability for %s: page=%v frames=%d degraded=%d",
		report.URL, report.Page.Stable, len(report.Frames), len(report.DegradedFrames()))
	return report
}

func (n *Navigator) waitScope(ctx context.Context, scope Scope, timeout time.Duration) FrameStatus {
	start := time.Now()
	err := bounded(ctx, timeout, func() error {
		return scope.WaitForLoadState(LoadDOMContentLoaded, timeout)
	})
	return FrameStatus{
		Name:    scope.Name(),
		URL:     scope.URL(),
		Stable:  err == nil,
		Err:     err,
		Elapsed: time.Since(start),
	}
}
