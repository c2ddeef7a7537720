package cmd

import (
	"strings"
	"time"

	"github.com/bnema/arthas-cli/internal/application"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newExecCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <verb> [args...]",
		Short: "Run a one-shot command",
		Long:  "Runs a command synchronously. Persistent commands (watch, trace, tt, stack, jfr) get a -n limit when none is given. Flags for arthasctl must come before the verb.",
		Example: `  arthasctl exec thread -n 3
  arthasctl exec sc -d com.example.Service`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeResponse(cmd, app, app.client.Exec(cmd.Context(), args[0], args[1:]...))
		},
	}
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newAsyncCmd(app *app) *cobra.Command {
	var (
		pullTimeout time.Duration
		maxPulls    int
	)

	cmd := &cobra.Command{
		Use:   "async <command...>",
		Short: "Run a persistent command through a bounded async session",
		Long:  "Creates a session, schedules the command, polls for results a bounded number of times and always interrupts the job and closes the session. Flags for arthasctl must come before the command.",
		Example: `  arthasctl async watch com.example.Service getUser returnObj
  arthasctl async --max-pulls 8 trace com.example.* get*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			opts := application.AsyncOptions{PullTimeout: pullTimeout, MaxPulls: maxPulls}

			return runLong(cmd, app, "Waiting for async results...", func(cmd *cobra.Command) domain.Response {
				return app.client.ExecAsync(cmd.Context(), line, opts)
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().DurationVar(&pullTimeout, "pull-timeout", 0, "Per-pull timeout (default async.pull_timeout)")
	cmd.Flags().IntVar(&maxPulls, "max-pulls", 0, "Maximum pull attempts (default async.max_pulls)")

	return cmd
}
