package domain

type Action string

const (
	ActionExec         Action = "exec"
	ActionInitSession  Action = "init_session"
	ActionAsyncExec    Action = "async_exec"
	ActionPullResults  Action = "pull_results"
	ActionInterruptJob Action = "interrupt_job"
	ActionCloseSession Action = "close_session"
)

// Request is the JSON envelope POSTed to the agent's api endpoint.
type Request struct {
	Action      Action `json:"action"`
	RequestID   string `json:"requestId,omitempty"`
	Command     string `json:"command,omitempty"`
	ExecTimeout string `json:"execTimeout,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	ConsumerID  string `json:"consumerId,omitempty"`
}
