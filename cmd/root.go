package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	rootCmd, closeLog := newRootCmd()
	return run(ctx, rootCmd, closeLog)
}

// run releases the log file whether or not the command succeeded.
func run(ctx context.Context, rootCmd *cobra.Command, closeLog io.Closer) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeLog == nil {
		return err
	}
	if closeErr := closeLog.Close(); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close log: %w", closeErr))
	}
	return err
}

// newRootCmd returns the command tree and the closer for the log it wired.
// The closer is nil when wiring failed.
func newRootCmd() (*cobra.Command, io.Closer) {
	rootCmd := &cobra.Command{
		Use:           "arthasctl",
		Short:         "arthasctl: bounded command execution against an Arthas agent",
		Long:          "arthasctl talks to a running Arthas agent over its HTTP API. Persistent commands such as watch, trace, tt, stack and jfr are auto-limited and run through a bounded async session that is always cleaned up.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd, nil
	}

	rootCmd.PersistentFlags().BoolVar(&app.output.asJSON, "json", false, "Render JSON output")
	rootCmd.PersistentFlags().IntVar(&app.output.maxRecords, "max-records", 0, "Limit the async records rendered (0 shows all)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConnectCmd(app),
		newDisconnectCmd(app),
		newStatusCmd(app),
		newExecCmd(app),
		newAsyncCmd(app),
	)
	rootCmd.AddCommand(newDiagnosticCmds(app)...)

	return rootCmd, app.closeLog
}
