package application

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bnema/arthas-cli/internal/adapters/transport/httpjson"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/bnema/arthas-cli/internal/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mockAnyContext() interface{} {
	return mock.Anything
}

func withAction(action domain.Action) interface{} {
	return mock.MatchedBy(func(request domain.Request) bool {
		return request.Action == action
	})
}

func jsonReply(status int, body string) ports.Reply {
	return ports.Reply{StatusCode: status, Body: []byte(body)}
}

// pullScript returns the HTTP status and the results array for one pull.
type pullScript func(command string, attempt int) (int, string)

// fakeAgent is an in-memory agent that serves the api endpoint over httptest.
type fakeAgent struct {
	t      *testing.T
	server *httptest.Server
	pull   pullScript

	mu       sync.Mutex
	next     int
	sessions map[string]*fakeSession
	requests []domain.Request
	execBody string
}

type fakeSession struct {
	command  string
	pulls    int
	closed   bool
	stopped  bool
	consumer string
}

func newFakeAgent(t *testing.T, pull pullScript) *fakeAgent {
	t.Helper()

	agent := &fakeAgent{
		t:        t,
		pull:     pull,
		sessions: map[string]*fakeSession{},
		execBody: `{"state":"SUCCEEDED","body":{"results":[]}}`,
	}
	agent.server = httptest.NewServer(http.HandlerFunc(agent.serve))
	t.Cleanup(agent.server.Close)

	return agent
}

func (a *fakeAgent) transport(t *testing.T) ports.Transport {
	t.Helper()

	transport, err := httpjson.NewTransport(a.server.URL, 5*time.Second)
	require.NoError(t, err)
	return transport
}

func (a *fakeAgent) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var request domain.Request
	if err := json.Unmarshal(raw, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	a.requests = append(a.requests, request)
	a.mu.Unlock()

	switch request.Action {
	case domain.ActionExec:
		a.write(w, http.StatusOK, a.execBody)
	case domain.ActionInitSession:
		a.mu.Lock()
		a.next++
		id := fmt.Sprintf("session-%d", a.next)
		consumer := fmt.Sprintf("consumer-%d", a.next)
		a.sessions[id] = &fakeSession{consumer: consumer}
		a.mu.Unlock()
		a.write(w, http.StatusOK, fmt.Sprintf(`{"sessionId":%q,"consumerId":%q}`, id, consumer))
	case domain.ActionAsyncExec:
		session, ok := a.session(request.SessionID)
		if !ok {
			a.write(w, http.StatusOK, `{"state":"FAILED"}`)
			return
		}
		a.mu.Lock()
		session.command = request.Command
		a.mu.Unlock()
		a.write(w, http.StatusOK, fmt.Sprintf(`{"state":"SCHEDULED","body":{"jobId":%q}}`, request.SessionID))
	case domain.ActionPullResults:
		session, ok := a.session(request.SessionID)
		if !ok || session.consumer != request.ConsumerID {
			a.write(w, http.StatusBadRequest, `{"state":"FAILED"}`)
			return
		}
		a.mu.Lock()
		session.pulls++
		attempt, command := session.pulls, session.command
		a.mu.Unlock()
		status, results := a.pull(command, attempt)
		a.write(w, status, fmt.Sprintf(`{"state":"SUCCEEDED","body":{"results":%s}}`, results))
	case domain.ActionInterruptJob:
		if session, ok := a.session(request.SessionID); ok {
			a.mu.Lock()
			session.stopped = true
			a.mu.Unlock()
		}
		a.write(w, http.StatusOK, `{"state":"SUCCEEDED"}`)
	case domain.ActionCloseSession:
		if session, ok := a.session(request.SessionID); ok {
			a.mu.Lock()
			session.closed = true
			a.mu.Unlock()
		}
		a.write(w, http.StatusOK, `{"state":"SUCCEEDED"}`)
	default:
		a.write(w, http.StatusBadRequest, `{"state":"FAILED"}`)
	}
}

func (a *fakeAgent) session(id string) (*fakeSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, ok := a.sessions[id]
	return session, ok
}

func (a *fakeAgent) write(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (a *fakeAgent) requestsFor(action domain.Action) []domain.Request {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.Request
	for _, request := range a.requests {
		if request.Action == action {
			out = append(out, request)
		}
	}
	return out
}

func (a *fakeAgent) snapshot(id string) fakeSession {
	a.mu.Lock()
	defer a.mu.Unlock()

	if session, ok := a.sessions[id]; ok {
		return *session
	}
	return fakeSession{}
}
