package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/arthas-cli/internal/application"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newDiagnosticCmds(app *app) []*cobra.Command {
	return []*cobra.Command{
		newSimpleDiagnosticCmd(app, "jvm", "Show JVM information", app.client.JVMInfo),
		newSimpleDiagnosticCmd(app, "sysenv", "Show the JVM's system environment", app.client.SystemEnv),
		newSimpleDiagnosticCmd(app, "memory", "Show JVM memory usage", app.client.MemoryInfo),
		newSimpleDiagnosticCmd(app, "gc", "Show garbage collector statistics", app.client.GCInfo),
		newSimpleDiagnosticCmd(app, "dashboard", "Show one dashboard snapshot", app.client.Dashboard),
		newThreadCmd(app),
		newJadCmd(app),
		newSearchClassCmd(app),
		newSearchMethodCmd(app),
		newTraceCmd(app),
		newWatchCmd(app),
		newProfileCmd(app),
	}
}

func newSimpleDiagnosticCmd(app *app, use, short string, run func(context.Context) domain.Response) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResponse(cmd, app, run(cmd.Context()))
		},
	}
}

func newThreadCmd(app *app) *cobra.Command {
	var (
		id    int
		count int
	)

	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Show threads, one thread by id or the busiest ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var threadID *int
			if cmd.Flags().Changed("id") {
				threadID = &id
			}

			return writeResponse(cmd, app, app.client.ThreadInfo(cmd.Context(), threadID, count))
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "Thread id")
	cmd.Flags().IntVar(&count, "count", application.DefaultThreadCount, "Show the N busiest threads (0 lists all threads)")

	return cmd
}

func newJadCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jad <class>",
		Short: "Decompile a loaded class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeResponse(cmd, app, app.client.DecompileClass(cmd.Context(), args[0]))
		},
	}
}

func newSearchClassCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sc <pattern>",
		Short: "Search loaded classes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeResponse(cmd, app, app.client.SearchClass(cmd.Context(), args[0]))
		},
	}
}

func newSearchMethodCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sm <class> [method]",
		Short: "Search methods of loaded classes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := ""
			if len(args) == 2 {
				method = args[1]
			}

			return writeResponse(cmd, app, app.client.SearchMethod(cmd.Context(), args[0], method))
		},
	}
}

func newTraceCmd(app *app) *cobra.Command {
	var (
		count int
		sync  bool
	)

	cmd := &cobra.Command{
		Use:   "trace <class> <method>",
		Short: "Trace method invocation paths and timings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := fmt.Sprintf("Tracing %s.%s...", args[0], args[1])
			return runLong(cmd, app, label, func(cmd *cobra.Command) domain.Response {
				return app.client.TraceMethod(cmd.Context(), args[0], args[1], count, !sync)
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", application.DefaultTraceCount, "Number of invocations to capture")
	cmd.Flags().BoolVar(&sync, "sync", false, "Use a one-shot request instead of an async session")

	return cmd
}

func newWatchCmd(app *app) *cobra.Command {
	var (
		count int
		sync  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <class> <method> [expression]",
		Short: "Watch method parameters and return values",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			expression := application.DefaultWatchExpression
			if len(args) == 3 {
				expression = args[2]
			}

			label := fmt.Sprintf("Watching %s.%s...", args[0], args[1])
			return runLong(cmd, app, label, func(cmd *cobra.Command) domain.Response {
				return app.client.WatchMethod(cmd.Context(), args[0], args[1], expression, count, !sync)
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", application.DefaultWatchCount, "Number of invocations to capture")
	cmd.Flags().BoolVar(&sync, "sync", false, "Use a one-shot request instead of an async session")

	return cmd
}

func newProfileCmd(app *app) *cobra.Command {
	var (
		duration time.Duration
		event    string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Sample hotspots with the async profiler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			label := fmt.Sprintf("Profiling %s for %s...", event, duration)
			return runLong(cmd, app, label, func(cmd *cobra.Command) domain.Response {
				return app.client.ProfileHotspots(cmd.Context(), duration, event)
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", application.DefaultProfileDuration, "Sampling duration")
	cmd.Flags().StringVar(&event, "event", application.DefaultProfileEvent, "Profiler event (cpu, alloc, lock, wall)")

	return cmd
}
