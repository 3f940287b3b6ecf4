package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/uiflow/pkg/browser"
	"github.com/entrhq/uiflow/pkg/logging"
)

var version = "dev"

// newLauncher is replaced in tests.
var newLauncher = func(install bool, logger *logging.Logger) browser.Launcher {
	return browser.NewPlaywrightLauncher(install, logger)
}

// exitError carries a non-zero exit code out of a command that already
// reported its result.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uiflow",
		Short: "Run resilient end-to-end UI flows",
		Long: `uiflow drives a real browser through user journeys and reports, per
scenario, whether the app passed, failed an expectation, or could not be
tested because of the harness or environment.

Exit codes: 0 all passed, 1 at least one failure, 2 infrastructure error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(`{{printf "uiflow version %s\n" .Version}}`)

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newRunFileCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(execute(newRootCmd()))
}

func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	return 2
}
