package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/bnema/arthas-cli/internal/ports"
)

const (
	apiPath            = "/api"
	maxReplyBytes      = 8 << 20
	maxIdleConnections = 16
)

type Transport struct {
	Endpoint       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Transport = (*Transport)(nil)

// NewTransport targets <baseURL>/api with a dedicated pooled client.
func NewTransport(baseURL string, requestTimeout time.Duration) (*Transport, error) {
	endpoint, err := buildAPIURL(baseURL, apiPath)
	if err != nil {
		return nil, err
	}

	return &Transport{
		Endpoint:       endpoint,
		HTTPClient:     NewPooledClient(),
		RequestTimeout: requestTimeout,
	}, nil
}

func NewPooledClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxIdleConnections
	transport.MaxIdleConnsPerHost = maxIdleConnections
	transport.IdleConnTimeout = 90 * time.Second

	return &http.Client{Transport: transport}
}

func (t *Transport) Post(ctx context.Context, request domain.Request) (ports.Reply, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return ports.Reply{}, fmt.Errorf("encode %s request: %w", request.Action, err)
	}

	requestCtx, cancel := t.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.Reply{}, fmt.Errorf("create %s request: %w", request.Action, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.httpClient().Do(httpReq)
	if err != nil {
		return ports.Reply{}, fmt.Errorf("%w: post %s: %w", domain.ErrTransport, request.Action, unwrapURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return ports.Reply{}, fmt.Errorf("%w: read %s response: %w", domain.ErrTransport, request.Action, err)
	}

	return ports.Reply{StatusCode: resp.StatusCode, Body: body}, nil
}

func (t *Transport) httpClient() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

func (t *Transport) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := t.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// unwrapURLError keeps context errors matchable after net/http wraps them.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("agent base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse agent base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("agent base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("agent base url host is required")
	}

	return parsed.JoinPath(path).String(), nil
}
