package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
)

const (
	DefaultProfileDuration = 15 * time.Second
	DefaultProfileEvent    = "cpu"
	DefaultWatchExpression = "returnObj"
	DefaultTraceCount      = 3
	DefaultWatchCount      = 5
	DefaultThreadCount     = 10
)

func (c *Client) JVMInfo(ctx context.Context) domain.Response {
	return c.Exec(ctx, "jvm")
}

func (c *Client) SystemEnv(ctx context.Context) domain.Response {
	return c.Exec(ctx, "sysenv")
}

func (c *Client) MemoryInfo(ctx context.Context) domain.Response {
	return c.Exec(ctx, "memory")
}

func (c *Client) GCInfo(ctx context.Context) domain.Response {
	return c.Exec(ctx, "gc")
}

func (c *Client) Dashboard(ctx context.Context) domain.Response {
	return c.Exec(ctx, "dashboard", domain.IterationLimitFlag, "1")
}

func (c *Client) DecompileClass(ctx context.Context, className string) domain.Response {
	return c.Exec(ctx, "jad", className)
}

func (c *Client) SearchClass(ctx context.Context, pattern string) domain.Response {
	return c.Exec(ctx, "sc", pattern)
}

func (c *Client) SearchMethod(ctx context.Context, className, methodPattern string) domain.Response {
	return c.Exec(ctx, "sm", className, methodPattern)
}

// ThreadInfo shows one thread when id is set, otherwise the busiest count threads.
func (c *Client) ThreadInfo(ctx context.Context, id *int, count int) domain.Response {
	switch {
	case id != nil:
		return c.Exec(ctx, "thread", strconv.Itoa(*id))
	case count > 0:
		return c.Exec(ctx, "thread", domain.IterationLimitFlag, strconv.Itoa(count))
	default:
		return c.Exec(ctx, "thread")
	}
}

func (c *Client) TraceMethod(ctx context.Context, className, methodName string, count int, async bool) domain.Response {
	if count <= 0 {
		count = DefaultTraceCount
	}

	command := domain.NewCommand("trace", className, methodName, domain.IterationLimitFlag, strconv.Itoa(count))
	return c.persistent(ctx, command, async)
}

func (c *Client) WatchMethod(ctx context.Context, className, methodName, expression string, count int, async bool) domain.Response {
	if count <= 0 {
		count = DefaultWatchCount
	}

	command := domain.NewCommand("watch", className, methodName, QuoteWatchExpression(expression), domain.IterationLimitFlag, strconv.Itoa(count))
	return c.persistent(ctx, command, async)
}

// QuoteWatchExpression wraps OGNL collection expressions in double quotes so
// the agent reads them as one argument.
func QuoteWatchExpression(expression string) string {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return DefaultWatchExpression
	}
	if !strings.Contains(expression, "{") || !strings.Contains(expression, "}") {
		return expression
	}
	if strings.HasPrefix(expression, `"`) && strings.HasSuffix(expression, `"`) {
		return expression
	}
	if strings.HasPrefix(expression, "'") && strings.HasSuffix(expression, "'") {
		return expression
	}

	return `"` + expression + `"`
}

func (c *Client) persistent(ctx context.Context, command domain.Command, async bool) domain.Response {
	if async {
		return c.ExecAsync(ctx, command.String(), AsyncOptions{})
	}
	return c.Exec(ctx, command.Verb, command.Args...)
}

// ProfileHotspots samples for duration and returns the profiler's stop output.
// A cancelled context ends sampling early but the profiler is still stopped.
func (c *Client) ProfileHotspots(ctx context.Context, duration time.Duration, event string) domain.Response {
	if duration <= 0 {
		duration = DefaultProfileDuration
	}
	if strings.TrimSpace(event) == "" {
		event = DefaultProfileEvent
	}

	start := c.Exec(ctx, "profiler", "start", "--event", event)
	if start.IsError() {
		return start
	}

	c.logger.Info().Dur("duration", duration).Str("event", event).Msg("profiler started")

	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		c.logger.Warn().Err(ctx.Err()).Msg("profiling interrupted, stopping profiler")
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.asyncOpts.CleanupTimeout)
	defer cancel()

	return c.Exec(stopCtx, "profiler", "stop", "--format", "html")
}
