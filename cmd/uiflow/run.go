package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/config"
	"github.com/entrhq/uiflow/pkg/flow"
	"github.com/entrhq/uiflow/pkg/logging"
	"github.com/entrhq/uiflow/pkg/report"
	"github.com/entrhq/uiflow/pkg/scenarios/creatoros"
)

// runFlags override the stored configuration for one invocation.
type runFlags struct {
	configPath     string
	baseURL        string
	headless       bool
	parallel       int
	artifacts      string
	executablePath string
	install        bool
	debug          bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (default $UIFLOW_CONFIG or ~/.uiflow/config.json)")
	fl.StringVar(&f.baseURL, "base-url", "", "deployment to test, e.g. http://localhost:3000")
	fl.BoolVar(&f.headless, "headless", true, "run the browser without a window")
	fl.IntVarP(&f.parallel, "parallel", "p", 0, "scenarios to run concurrently")
	fl.StringVar(&f.artifacts, "artifacts", "", "directory for results.json and summary.md")
	fl.StringVar(&f.executablePath, "executable-path", "", "Chromium binary to launch instead of the bundled one")
	fl.BoolVar(&f.install, "install", false, "download the browser driver before launching")
	fl.BoolVar(&f.debug, "debug", false, "log debug output")
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern...]",
		Short: "List built-in scenarios",
		Long:  `List built-in scenarios whose name or tag matches any glob pattern.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := flow.Select(creatoros.All(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sc := range selected {
				fmt.Fprintf(out, "%-30s %s\n", sc.Name, sc.Description)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [pattern...]",
		Short: "Run built-in scenarios",
		Long: `Run the built-in scenarios whose name or tag matches any glob pattern.
With no pattern every scenario runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := flow.Select(creatoros.All(), args)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				return fmt.Errorf("no scenario matches %v", args)
			}
			return runScenarios(cmd, &f, selected)
		},
	}
	f.register(cmd)
	return cmd
}

func newRunFileCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run-file FILE...",
		Short: "Run YAML flow scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios := make([]flow.Scenario, 0, len(args))
			for _, path := range args {
				script, err := flow.LoadScript(path)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, script.Scenario())
			}
			return runScenarios(cmd, &f, scenarios)
		},
	}
	f.register(cmd)
	return cmd
}

func runScenarios(cmd *cobra.Command, f *runFlags, scenarios []flow.Scenario) error {
	if err := config.Initialize(f.configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cmd, f)
	if err := config.Global().ValidateAll(); err != nil {
		return err
	}

	logger, err := logging.NewLogger("uiflow")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; logging to stderr\n", err)
	}
	defer logger.Close()
	logger.SetDebug(f.debug)

	b := config.GetBrowser().Snapshot()
	t := config.GetTimeouts().Snapshot()
	target := config.GetTarget().Snapshot()

	manager := browser.NewSessionManager(newLauncher(f.install || b.InstallDriver, logger), logger)
	runner := flow.NewRunner(manager, flow.OptionsFrom(b, t, target), logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down, closing browsers...")
			cancel()
			if err := manager.ReleaseAll(); err != nil {
				logger.Warnf("release on shutdown: %v", err)
			}
		case <-ctx.Done():
		}
	}()

	logger.Infof("running %d scenario(s) against %s (parallelism %d)", len(scenarios), target.BaseURL, target.Parallelism)
	start := time.Now()
	outcomes := runner.RunAll(ctx, scenarios, target.Parallelism)

	if err := manager.ReleaseAll(); err != nil {
		logger.Warnf("release after run: %v", err)
	}

	r := report.New(logger.RunID(), target.BaseURL, start, outcomes)
	report.NewConsole(cmd.OutOrStdout()).Print(r)

	if f.artifacts != "" {
		if err := report.NewArtifactWriter(f.artifacts).WriteAll(r); err != nil {
			return fmt.Errorf("failed to write artifacts: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Artifacts written to %s\n", f.artifacts)
	}

	if r.ExitCode != 0 {
		return &exitError{code: r.ExitCode}
	}
	return nil
}

func applyOverrides(cmd *cobra.Command, f *runFlags) {
	fl := cmd.Flags()
	if fl.Changed("base-url") {
		config.GetTarget().SetBaseURL(f.baseURL)
	}
	if fl.Changed("parallel") {
		config.GetTarget().SetParallelism(f.parallel)
	}
	if fl.Changed("headless") {
		config.GetBrowser().SetHeadless(f.headless)
	}
	if fl.Changed("executable-path") {
		config.GetBrowser().SetExecutablePath(f.executablePath)
	}
}
