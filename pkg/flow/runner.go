package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/config"
	"github.com/entrhq/uiflow/pkg/logging"
)

// Options configure a Runner.
type Options struct {
	BaseURL     string
	Credentials Credentials
	Session     browser.SessionConfig
	Timeouts    config.TimeoutSettings
}

// OptionsFrom builds runner options from config settings.
func OptionsFrom(b config.BrowserSettings, t config.TimeoutSettings, target config.TargetSettings) Options {
	return Options{
		BaseURL:     target.BaseURL,
		Credentials: Credentials{Email: target.LoginEmail, Password: target.LoginPassword},
		Session:     browser.SessionConfigFrom(b, t),
		Timeouts:    t,
	}
}

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario string
	Verdict  Verdict
	Reason   string
	Err      error
	Started  time.Time
	Duration time.Duration
	// Load is the initial page load, nil when it never committed.
	Load    *browser.LoadReport
	Steps   []browser.StepResult
	Cleanup error
	Flags   []string
	Notes   []string
}

// Runner executes scenarios, each in its own browser session.
type Runner struct {
	manager  *browser.SessionManager
	opts     Options
	logger   *logging.Logger
	nav      *browser.Navigator
	exec     *browser.Executor
	asserter *browser.Asserter
}

// NewRunner creates a runner launching sessions through manager.
func NewRunner(manager *browser.SessionManager, opts Options, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		manager:  manager,
		opts:     opts,
		logger:   logger.Named("runner"),
		nav:      browser.NewNavigator(opts.Timeouts, logger),
		exec:     browser.NewExecutor(opts.Timeouts, logger),
		asserter: browser.NewAsserter(opts.Timeouts, logger),
	}
}

// Asserter exposes the runner's asserter, e.g. to tune polling in tests.
func (r *Runner) Asserter() *browser.Asserter {
	return r.asserter
}

// RunScenario runs sc to completion and always releases its session.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) Outcome {
	out := Outcome{Scenario: sc.Name, Started: time.Now(), Notes: sc.Notes}
	if err := sc.Validate(); err != nil {
		return r.finish(out, nil, err)
	}

	cfg := r.opts.Session
	if sc.Viewport.Width > 0 && sc.Viewport.Height > 0 {
		cfg.Viewport = sc.Viewport
	}

	r.logger.Infof("scenario %s starting", sc.Name)

	var (
		session *browser.Session
		run     *Run
	)
	err := r.manager.With(ctx, cfg, func(s *browser.Session) (err error) {
		session = s
		defer func() {
			if v := recover(); v != nil {
				err = &PanicError{Value: v, Stack: string(debug.Stack())}
			}
		}()

		c, err := s.NewContext(ctx)
		if err != nil {
			return fmt.Errorf("open context: %w", err)
		}
		run = &Run{
			scenario: sc.Name,
			baseURL:  r.opts.BaseURL,
			creds:    r.opts.Credentials,
			settle:   r.opts.Timeouts.Settle,
			bctx:     c,
			nav:      r.nav,
			exec:     r.exec,
			asserter: r.asserter,
			logger:   r.logger.Named(sc.Name),
		}

		if sc.Start != "" {
			report, err := run.Goto(ctx, sc.Start)
			if err != nil {
				return err
			}
			out.Load = &report
		}
		return sc.Body(ctx, run)
	})

	if session != nil {
		// returns the result of the release With already performed
		out.Cleanup = session.Release()
	}
	return r.finish(out, run, err)
}

func (r *Runner) finish(out Outcome, run *Run, err error) Outcome {
	out.Duration = time.Since(out.Started)
	out.Err = err
	out.Verdict = Classify(err)
	if err != nil {
		out.Reason = err.Error()
	}
	if run != nil {
		out.Steps = run.Steps()
		out.Flags = run.Flags()
	}

	switch out.Verdict {
	case VerdictPass:
		r.logger.Infof("scenario %s passed in %v", out.Scenario, out.Duration.Round(time.Millisecond))
	case VerdictFail:
		r.logger.Warnf("scenario %s failed in %v: %s", out.Scenario, out.Duration.Round(time.Millisecond), out.Reason)
	default:
		r.logger.Errorf("scenario %s infrastructure error after %v: %s", out.Scenario, out.Duration.Round(time.Millisecond), out.Reason)
	}
	if pe, ok := err.(*PanicError); ok {
		r.logger.Debugf("panic stack:\n%s", pe.Stack)
	}
	return out
}

// RunAll runs scenarios with at most parallelism in flight. Outcomes are
// returned in scenario order. Each scenario has its own session; nothing
// mutable is shared between them.
//
// A launch failure is fatal for the run: scenarios still in flight are
// cancelled and the ones not yet started are reported as infrastructure
// errors without touching the launcher.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, parallelism int) []Outcome {
	if parallelism < 1 {
		parallelism = 1
	}
	outcomes := make([]Outcome, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, sc := range scenarios {
		g.Go(func() error {
			if gctx.Err() != nil {
				outcomes[i] = r.skip(sc, context.Cause(gctx))
				return nil
			}
			outcomes[i] = r.RunScenario(gctx, sc)
			var launchErr *browser.LaunchError
			if errors.As(outcomes[i].Err, &launchErr) {
				return launchErr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Errorf("run aborted: %v", err)
	}
	return outcomes
}

func (r *Runner) skip(sc Scenario, cause error) Outcome {
	out := Outcome{Scenario: sc.Name, Started: time.Now(), Notes: sc.Notes}
	return r.finish(out, nil, &AbortedError{Cause: cause})
}

// Summary counts outcomes per verdict.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Infra    int
	Duration time.Duration
}

// Summarize counts outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Verdict {
		case VerdictPass:
			s.Passed++
		case VerdictFail:
			s.Failed++
		default:
			s.Infra++
		}
		s.Duration += o.Duration
	}
	return s
}

// ExitCode is 0 when everything passed, 2 when any scenario hit an
// infrastructure error and 1 otherwise.
func ExitCode(outcomes []Outcome) int {
	s := Summarize(outcomes)
	switch {
	case s.Infra > 0:
		return 2
	case s.Failed > 0:
		return 1
	default:
		return 0
	}
}
