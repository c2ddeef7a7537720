package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSendsJSONEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"action":     "pull_results",
			"sessionId":  "sess-1",
			"consumerId": "cons-1",
		}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":"SUCCEEDED","body":{"results":[]}}`))
	}))
	t.Cleanup(server.Close)

	transport, err := NewTransport(server.URL+"/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/api", transport.Endpoint)

	reply, err := transport.Post(context.Background(), domain.Request{
		Action:     domain.ActionPullResults,
		SessionID:  "sess-1",
		ConsumerID: "cons-1",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, reply.StatusCode)

	var decoded struct {
		State string `json:"state"`
	}
	require.NoError(t, reply.Decode(&decoded))
	assert.Equal(t, "SUCCEEDED", decoded.State)
}

func TestPostReturnsNon200WithoutError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	t.Cleanup(server.Close)

	transport, err := NewTransport(server.URL, time.Second)
	require.NoError(t, err)

	reply, err := transport.Post(context.Background(), domain.Request{Action: domain.ActionInitSession})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, reply.StatusCode)
	assert.Equal(t, "boom", string(reply.Body))

	err = reply.Decode(&struct{}{})
	assert.True(t, errors.Is(err, domain.ErrProtocol))
}

func TestPostWrapsTimeoutAsTransportAndDeadlineError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	transport, err := NewTransport(server.URL, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = transport.Post(ctx, domain.Request{Action: domain.ActionPullResults})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPostAppliesDefaultRequestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	transport, err := NewTransport(server.URL, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = transport.Post(context.Background(), domain.Request{Action: domain.ActionExec, Command: "version"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestPostIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": req.SessionID})
	}))
	t.Cleanup(server.Close)

	transport, err := NewTransport(server.URL, time.Second)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			reply, err := transport.Post(context.Background(), domain.Request{Action: domain.ActionCloseSession, SessionID: id})
			if !assert.NoError(t, err) {
				return
			}
			var decoded map[string]string
			if assert.NoError(t, reply.Decode(&decoded)) {
				assert.Equal(t, id, decoded["sessionId"])
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
}

func TestNewTransportRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://host", "http://"} {
		_, err := NewTransport(raw, time.Second)
		assert.Error(t, err, raw)
	}
}
