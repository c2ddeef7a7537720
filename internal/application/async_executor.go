package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/bnema/arthas-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultPullTimeout    = 5 * time.Second
	DefaultMaxPulls       = 4
	DefaultCleanupTimeout = 5 * time.Second
)

type AsyncOptions struct {
	PullTimeout    time.Duration
	MaxPulls       int
	CleanupTimeout time.Duration
}

func DefaultAsyncOptions() AsyncOptions {
	return AsyncOptions{
		PullTimeout:    DefaultPullTimeout,
		MaxPulls:       DefaultMaxPulls,
		CleanupTimeout: DefaultCleanupTimeout,
	}
}

// WithFallback fills zero fields from fallback.
func (o AsyncOptions) WithFallback(fallback AsyncOptions) AsyncOptions {
	if o.PullTimeout <= 0 {
		o.PullTimeout = fallback.PullTimeout
	}
	if o.MaxPulls <= 0 {
		o.MaxPulls = fallback.MaxPulls
	}
	if o.CleanupTimeout <= 0 {
		o.CleanupTimeout = fallback.CleanupTimeout
	}
	return o
}

type AsyncState int

const (
	AsyncStateInit AsyncState = iota
	AsyncStateSessionCreated
	AsyncStateScheduled
	AsyncStatePolling
	AsyncStateCompleted
	AsyncStateExhausted
	AsyncStateFailed
	AsyncStateCleanedUp
)

var asyncStateNames = map[AsyncState]string{
	AsyncStateInit:           "init",
	AsyncStateSessionCreated: "session_created",
	AsyncStateScheduled:      "scheduled",
	AsyncStatePolling:        "polling",
	AsyncStateCompleted:      "completed",
	AsyncStateExhausted:      "exhausted",
	AsyncStateFailed:         "failed",
	AsyncStateCleanedUp:      "cleaned_up",
}

func (s AsyncState) String() string {
	if name, ok := asyncStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("async_state(%d)", int(s))
}

func (s AsyncState) terminal() bool {
	switch s {
	case AsyncStateCompleted, AsyncStateExhausted, AsyncStateFailed, AsyncStateCleanedUp:
		return true
	default:
		return false
	}
}

// AsyncOutcome is the result of one orchestration. State is the terminal state
// reached before cleanup; CleanedUp reports whether the session was released.
type AsyncOutcome struct {
	Command   string
	State     AsyncState
	Attempts  int
	JobID     domain.JobID
	Results   []domain.ResultRecord
	CleanedUp bool
	Err       error
}

type AsyncResult struct {
	Results        []domain.ResultRecord `json:"results"`
	Count          int                   `json:"count"`
	AsyncExecution bool                  `json:"async_execution"`
	JobID          domain.JobID          `json:"job_id,omitempty"`
	PullAttempts   int                   `json:"pull_attempts"`
	Completed      bool                  `json:"completed"`
}

type AsyncExecutor struct {
	transport ports.Transport
	logger    zerolog.Logger
}

func NewAsyncExecutor(transport ports.Transport, logger zerolog.Logger) *AsyncExecutor {
	return &AsyncExecutor{
		transport: transport,
		logger:    logger.With().Str("component", "async").Logger(),
	}
}

func (e *AsyncExecutor) Execute(ctx context.Context, command string, opts AsyncOptions) domain.Response {
	return asyncResponse(e.Run(ctx, command, opts))
}

// Run drives one persistent command through session creation, scheduling and
// bounded polling. Once a session exists it is interrupted and closed exactly
// once, whatever state the run ends in.
func (e *AsyncExecutor) Run(ctx context.Context, command string, opts AsyncOptions) (outcome AsyncOutcome) {
	run := &asyncRun{
		transport: e.transport,
		logger:    e.logger.With().Str("command", command).Logger(),
		command:   command,
		opts:      opts.WithFallback(DefaultAsyncOptions()),
		aggregate: newResultAggregator(),
		state:     AsyncStateInit,
	}

	defer func() {
		run.releaseSession(ctx)
		outcome = run.outcome()
	}()

	run.drive(ctx)

	return outcome
}

type asyncRun struct {
	transport ports.Transport
	logger    zerolog.Logger
	command   string
	opts      AsyncOptions
	aggregate *resultAggregator

	state     AsyncState
	session   *domain.Session
	job       domain.Job
	attempts  int
	released  bool
	cleanedUp bool
	err       error
}

type initSessionReply struct {
	SessionID  string `json:"sessionId"`
	ConsumerID string `json:"consumerId"`
}

type asyncExecReply struct {
	State string `json:"state"`
	Body  struct {
		JobID domain.JobID `json:"jobId"`
	} `json:"body"`
}

type pullResultsReply struct {
	Body struct {
		Results domain.PollBatch `json:"results"`
	} `json:"body"`
}

func (r *asyncRun) drive(ctx context.Context) {
	for !r.state.terminal() {
		switch r.state {
		case AsyncStateInit:
			r.openSession(ctx)
		case AsyncStateSessionCreated:
			r.schedule(ctx)
		case AsyncStateScheduled:
			r.logger.Info().Str("job_id", string(r.job.ID)).Msg("async command scheduled")
			r.transition(AsyncStatePolling)
		case AsyncStatePolling:
			r.pollOnce(ctx)
		default:
			r.fail(fmt.Errorf("unexpected async state %s", r.state))
		}
	}
}

func (r *asyncRun) transition(next AsyncState) {
	r.logger.Debug().Stringer("from", r.state).Stringer("to", next).Msg("async state transition")
	r.state = next
}

func (r *asyncRun) fail(err error) {
	r.err = err
	r.transition(AsyncStateFailed)
}

func (r *asyncRun) openSession(ctx context.Context) {
	reply, err := r.transport.Post(ctx, domain.Request{Action: domain.ActionInitSession})
	if err != nil {
		r.fail(fmt.Errorf("create session: %w", err))
		return
	}
	if reply.StatusCode != http.StatusOK {
		r.fail(fmt.Errorf("%w: create session: http %d", domain.ErrTransport, reply.StatusCode))
		return
	}

	var payload initSessionReply
	if err := reply.Decode(&payload); err != nil {
		r.fail(fmt.Errorf("create session: %w", err))
		return
	}
	if payload.SessionID == "" || payload.ConsumerID == "" {
		r.fail(fmt.Errorf("%w: create session: response missing sessionId or consumerId", domain.ErrProtocol))
		return
	}

	r.session = &domain.Session{ID: payload.SessionID, ConsumerID: payload.ConsumerID}
	r.logger = r.logger.With().Str("session_id", payload.SessionID).Logger()
	r.transition(AsyncStateSessionCreated)
}

func (r *asyncRun) schedule(ctx context.Context) {
	reply, err := r.transport.Post(ctx, domain.Request{
		Action:    domain.ActionAsyncExec,
		Command:   r.command,
		SessionID: r.session.ID,
	})
	if err != nil {
		r.fail(fmt.Errorf("schedule command: %w", err))
		return
	}
	if reply.StatusCode != http.StatusOK {
		r.fail(fmt.Errorf("%w: schedule command: http %d", domain.ErrTransport, reply.StatusCode))
		return
	}

	var payload asyncExecReply
	if err := reply.Decode(&payload); err != nil {
		r.fail(fmt.Errorf("schedule command: %w", err))
		return
	}
	if domain.JobState(payload.State) != domain.JobStateScheduled {
		r.fail(fmt.Errorf("%w: command not scheduled: state %q", domain.ErrProtocol, payload.State))
		return
	}

	r.job = domain.Job{ID: payload.Body.JobID, State: domain.JobStateScheduled}
	r.transition(AsyncStateScheduled)
}

func (r *asyncRun) pollOnce(ctx context.Context) {
	if r.attempts >= r.opts.MaxPulls {
		r.logger.Info().Int("attempts", r.attempts).Int("results", r.aggregate.Count()).Msg("pull budget exhausted")
		r.transition(AsyncStateExhausted)
		return
	}

	r.attempts++
	batch, err := r.pull(ctx)
	switch {
	case errors.Is(err, domain.ErrPollTimeout):
		r.logger.Warn().Dur("pull_timeout", r.opts.PullTimeout).Int("attempt", r.attempts).Msg("pull timeout")
		return
	case err != nil:
		r.fail(err)
		return
	}

	if len(batch) == 0 {
		r.logger.Debug().Int("attempt", r.attempts).Msg("no results yet")
		return
	}

	if r.aggregate.Add(batch) {
		r.logger.Info().Int("attempt", r.attempts).Int("results", r.aggregate.Count()).Msg("command completed")
		r.transition(AsyncStateCompleted)
		return
	}

	r.logger.Debug().Int("attempt", r.attempts).Int("batch", len(batch)).Msg("interim results received")
}

func (r *asyncRun) pull(ctx context.Context) (domain.PollBatch, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.opts.PullTimeout)
	defer cancel()

	reply, err := r.transport.Post(attemptCtx, domain.Request{
		Action:     domain.ActionPullResults,
		SessionID:  r.session.ID,
		ConsumerID: r.session.ConsumerID,
	})
	if err != nil {
		if ctx.Err() == nil && (attemptCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded)) {
			return nil, fmt.Errorf("%w after %s: %w", domain.ErrPollTimeout, r.opts.PullTimeout, err)
		}
		return nil, fmt.Errorf("pull results: %w", err)
	}
	if reply.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pull results: http %d", domain.ErrTransport, reply.StatusCode)
	}

	var payload pullResultsReply
	if err := reply.Decode(&payload); err != nil {
		return nil, fmt.Errorf("pull results: %w", err)
	}

	return payload.Body.Results, nil
}

// releaseSession interrupts the job and closes the session. It still runs
// after the caller's context is cancelled; failures are logged only.
func (r *asyncRun) releaseSession(ctx context.Context) {
	if r.session == nil || r.released {
		return
	}
	r.released = true

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.CleanupTimeout)
	defer cancel()

	if err := r.bestEffort(cleanupCtx, domain.ActionInterruptJob); err != nil {
		r.logger.Warn().Err(err).Msg("failed to interrupt command")
	} else {
		r.logger.Info().Msg("command interrupted for cleanup")
	}

	if err := r.bestEffort(cleanupCtx, domain.ActionCloseSession); err != nil {
		r.logger.Warn().Err(err).Msg("failed to close session")
	} else {
		r.logger.Info().Msg("session closed")
	}

	r.cleanedUp = true
	r.logger.Debug().Stringer("outcome", r.state).Stringer("to", AsyncStateCleanedUp).Msg("async state transition")
}

func (r *asyncRun) bestEffort(ctx context.Context, action domain.Action) error {
	reply, err := r.transport.Post(ctx, domain.Request{Action: action, SessionID: r.session.ID})
	if err != nil {
		return err
	}
	if reply.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: http %d", domain.ErrTransport, action, reply.StatusCode)
	}
	return nil
}

func (r *asyncRun) outcome() AsyncOutcome {
	return AsyncOutcome{
		Command:   r.command,
		State:     r.state,
		Attempts:  r.attempts,
		JobID:     r.job.ID,
		Results:   r.aggregate.Results(),
		CleanedUp: r.cleanedUp,
		Err:       r.err,
	}
}

func asyncResponse(outcome AsyncOutcome) domain.Response {
	if outcome.State == AsyncStateFailed {
		return domain.Failure(fmt.Sprintf("Async command '%s' failed", outcome.Command), outcome.Err)
	}

	data := AsyncResult{
		Results:        outcome.Results,
		Count:          len(outcome.Results),
		AsyncExecution: true,
		JobID:          outcome.JobID,
		PullAttempts:   outcome.Attempts,
		Completed:      outcome.State == AsyncStateCompleted,
	}
	if data.Results == nil {
		data.Results = []domain.ResultRecord{}
	}

	if data.Count == 0 {
		return domain.Warning(
			fmt.Sprintf("Command '%s' executed but no results received (possibly no matching calls)", outcome.Command),
			data,
		)
	}

	return domain.Success(
		fmt.Sprintf("Command '%s' executed with %d results (async mode)", outcome.Command, data.Count),
		data,
	)
}
