package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/bnema/arthas-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	healthCheckRequestID   = "health_check"
	healthCheckCommand     = "version"
	healthCheckExecTimeout = "5000"
	execTimeout            = "30000"
	maxLoggedBodyChars     = 500
)

// TransportFactory opens a transport for an agent base URL.
type TransportFactory func(baseURL string) (ports.Transport, error)

type Client struct {
	repo       ports.ConnectionRepository
	dial       TransportFactory
	clock      ports.Clock
	base       zerolog.Logger
	logger     zerolog.Logger
	normalizer Normalizer
	asyncOpts  AsyncOptions

	mu         sync.Mutex
	transports map[string]ports.Transport
}

func NewClient(repo ports.ConnectionRepository, dial TransportFactory, clock ports.Clock, logger zerolog.Logger, asyncOpts AsyncOptions) *Client {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Client{
		repo:       repo,
		dial:       dial,
		clock:      clock,
		base:       logger,
		logger:     logger.With().Str("component", "client").Logger(),
		normalizer: NewNormalizer(logger),
		asyncOpts:  asyncOpts.WithFallback(DefaultAsyncOptions()),
		transports: map[string]ports.Transport{},
	}
}

func (c *Client) Connect(ctx context.Context, rawURL string) domain.Response {
	connection, err := domain.ParseConnection(rawURL)
	if err != nil {
		return c.failure("Connection failed", err)
	}

	transport, err := c.transportFor(connection.BaseURL)
	if err != nil {
		return c.failure("Connection failed", err)
	}

	reply, err := transport.Post(ctx, domain.Request{
		Action:      domain.ActionExec,
		RequestID:   healthCheckRequestID,
		Command:     healthCheckCommand,
		ExecTimeout: healthCheckExecTimeout,
	})
	if err != nil {
		return c.failure("Connection failed", fmt.Errorf("health check: %w", err))
	}
	if reply.StatusCode != http.StatusOK {
		return c.failure("Connection failed", fmt.Errorf("%w: health check: http %d", domain.ErrTransport, reply.StatusCode))
	}

	connection.Connected = true
	connection.ConnectedAt = c.clock.Now()
	if err := c.repo.Save(ctx, connection); err != nil {
		return c.failure("Connection failed", fmt.Errorf("save connection: %w", err))
	}

	c.logger.Info().Str("address", connection.Address()).Msg("connected to arthas")

	return c.stamp(domain.Success(
		fmt.Sprintf("Connected to Arthas WebConsole: %s", connection.Address()),
		map[string]any{"response": decodeBody(reply.Body)},
	))
}

func (c *Client) Disconnect(ctx context.Context) domain.Response {
	if err := c.repo.Delete(ctx); err != nil {
		return c.failure("Failed to disconnect", err)
	}

	c.logger.Info().Msg("disconnected from arthas")
	return c.stamp(domain.Success("Disconnected from Arthas", nil))
}

// ConnectionInfo returns the stored connection, or a zero disconnected record.
func (c *Client) ConnectionInfo(ctx context.Context) (domain.Connection, error) {
	connection, err := c.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionNotFound) {
			return domain.Connection{}, nil
		}
		return domain.Connection{}, fmt.Errorf("load connection: %w", err)
	}

	return connection, nil
}

// Exec runs a one-shot command and maps the agent's reply to a Response.
func (c *Client) Exec(ctx context.Context, verb string, args ...string) domain.Response {
	command := domain.NewCommand(verb, args...)
	if command.IsZero() {
		return c.failure("Command execution failed", errors.New("command verb is required"))
	}

	connection, transport, err := c.connected(ctx)
	if err != nil {
		return c.failure("Command execution failed", err)
	}

	line := c.normalizer.Normalize(command.String())
	reply, err := transport.Post(ctx, domain.Request{
		Action:      domain.ActionExec,
		RequestID:   "cmd_" + uuid.NewString(),
		Command:     line,
		ExecTimeout: execTimeout,
		SessionID:   connection.SessionID,
	})
	if err != nil {
		return c.failure(fmt.Sprintf("Command '%s' execution failed", line), err)
	}
	if reply.StatusCode != http.StatusOK {
		c.logger.Error().Str("body", truncate(string(reply.Body), maxLoggedBodyChars)).Int("status", reply.StatusCode).Msg("agent rejected command")
		return c.failure(fmt.Sprintf("Command '%s' execution failed", line), fmt.Errorf("%w: http %d", domain.ErrTransport, reply.StatusCode))
	}

	c.logger.Info().Str("command", line).Msg("command executed")

	return c.stamp(domain.Success(fmt.Sprintf("Command '%s' executed successfully", line), decodeBody(reply.Body)))
}

// ExecAsync runs a persistent command through the bounded async protocol.
// Zero fields in opts fall back to the client's configured options.
func (c *Client) ExecAsync(ctx context.Context, line string, opts AsyncOptions) domain.Response {
	if domain.ParseCommand(line).IsZero() {
		return c.failure("Async command execution failed", errors.New("command is required"))
	}

	_, transport, err := c.connected(ctx)
	if err != nil {
		return c.failure("Async command execution failed", err)
	}

	normalized := c.normalizer.Normalize(line)
	resp := NewAsyncExecutor(transport, c.base).Execute(ctx, normalized, opts.WithFallback(c.asyncOpts))
	if resp.IsError() {
		c.logger.Error().Str("command", normalized).Str("error", resp.Error).Msg("async command execution failed")
	}

	return c.stamp(resp)
}

func (c *Client) connected(ctx context.Context) (domain.Connection, ports.Transport, error) {
	connection, err := c.ConnectionInfo(ctx)
	if err != nil {
		return domain.Connection{}, nil, err
	}
	if !connection.Connected {
		return domain.Connection{}, nil, fmt.Errorf("%w, run `arthasctl connect` first", domain.ErrNotConnected)
	}

	transport, err := c.transportFor(connection.BaseURL)
	if err != nil {
		return domain.Connection{}, nil, err
	}

	return connection, transport, nil
}

func (c *Client) transportFor(baseURL string) (ports.Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if transport, ok := c.transports[baseURL]; ok {
		return transport, nil
	}

	transport, err := c.dial(baseURL)
	if err != nil {
		return nil, fmt.Errorf("open transport: %w", err)
	}
	c.transports[baseURL] = transport

	return transport, nil
}

func (c *Client) failure(message string, err error) domain.Response {
	c.logger.Error().Err(err).Msg(message)
	return c.stamp(domain.Failure(message, err))
}

func (c *Client) stamp(resp domain.Response) domain.Response {
	return resp.WithTimestamp(c.clock.Now())
}

func decodeBody(body []byte) any {
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return map[string]any{"raw_text": string(body)}
	}

	return decoded
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
