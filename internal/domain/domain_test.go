package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandDropsBlankArgs(t *testing.T) {
	cmd := NewCommand("sm", "com.example.Foo", "", "  ", "bar")

	assert.Equal(t, "sm", cmd.Verb)
	assert.Equal(t, []string{"com.example.Foo", "bar"}, cmd.Args)
	assert.Equal(t, "sm com.example.Foo bar", cmd.String())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{name: "verb only", line: "jvm", want: Command{Verb: "jvm", Args: []string{}}},
		{name: "collapses whitespace", line: "  trace  com.example.*   get* ", want: Command{Verb: "trace", Args: []string{"com.example.*", "get*"}}},
		{name: "empty", line: "   ", want: Command{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.line))
		})
	}
}

func TestCommandHasArg(t *testing.T) {
	cmd := ParseCommand("watch com.example.Foo bar -n 2")

	assert.True(t, cmd.HasArg(IterationLimitFlag))
	assert.False(t, cmd.HasArg("-x"))
	assert.False(t, Command{}.HasArg(IterationLimitFlag))
	assert.True(t, Command{}.IsZero())
}

func TestParseConnection(t *testing.T) {
	conn, err := ParseConnection("http://10.0.0.5:3658/")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:3658", conn.BaseURL)
	assert.Equal(t, "10.0.0.5", conn.Host)
	assert.Equal(t, 3658, conn.Port)
	assert.Equal(t, "10.0.0.5:3658", conn.Address())
	assert.False(t, conn.Connected)

	conn, err = ParseConnection("http://arthas.internal")
	require.NoError(t, err)
	assert.Equal(t, DefaultAgentPort, conn.Port)
}

func TestParseConnectionRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://host:1", "http://", "localhost:8563"} {
		_, err := ParseConnection(raw)
		assert.Error(t, err, raw)
	}
}

func TestResultRecordKeepsRawPayload(t *testing.T) {
	raw := `{"type":"watch","cost":1.25,"value":"@String[ok]"}`

	var record ResultRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, "watch", record.Type)
	assert.Nil(t, record.StatusCode)
	assert.False(t, record.IsTerminal())

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(encoded))
}

func TestPollBatchTerminalMarker(t *testing.T) {
	var batch PollBatch
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type":"command","state":"SCHEDULED"},
		{"type":"status","statusCode":1,"message":"still running"},
		{"type":"result","value":1}
	]`), &batch))
	assert.False(t, batch.HasTerminalMarker())

	require.NoError(t, json.Unmarshal([]byte(`[{"type":"result"},{"type":"status","statusCode":0}]`), &batch))
	assert.True(t, batch.HasTerminalMarker())
	assert.False(t, PollBatch(nil).HasTerminalMarker())
}

func TestResultRecordToleratesOddShapes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		terminal bool
	}{
		{name: "quoted status code", raw: `{"type":"status","statusCode":"0"}`, wantType: "status"},
		{name: "fractional status code", raw: `{"type":"status","statusCode":0.5}`, wantType: "status"},
		{name: "null status code", raw: `{"type":"status","statusCode":null}`, wantType: "status"},
		{name: "float zero status code", raw: `{"type":"status","statusCode":0.0}`, wantType: "status", terminal: true},
		{name: "non string type", raw: `{"type":7,"statusCode":0}`},
		{name: "array record", raw: `[1,2]`},
		{name: "string record", raw: `"plain"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var record ResultRecord
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &record))
			assert.Equal(t, tt.wantType, record.Type)
			assert.Equal(t, tt.terminal, record.IsTerminal())
			assert.JSONEq(t, tt.raw, string(record.Raw()))
		})
	}
}

func TestPollBatchKeepsOddRecords(t *testing.T) {
	var batch PollBatch
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"watch","value":1},{"type":"status","statusCode":"0"},"text"]`), &batch))

	require.Len(t, batch, 3)
	assert.False(t, batch.HasTerminalMarker())
}

func TestJobIDAcceptsNumbersAndStrings(t *testing.T) {
	var body struct {
		JobID JobID `json:"jobId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"jobId":42}`), &body))
	assert.Equal(t, JobID("42"), body.JobID)

	require.NoError(t, json.Unmarshal([]byte(`{"jobId":"job-7"}`), &body))
	assert.Equal(t, JobID("job-7"), body.JobID)

	require.NoError(t, json.Unmarshal([]byte(`{"jobId":null}`), &body))
	assert.Equal(t, JobID(""), body.JobID)
}

func TestResponseErrorInvariant(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	ok := Success("done", nil).WithTimestamp(at)
	assert.Equal(t, StatusSuccess, ok.Status)
	assert.Empty(t, ok.Error)
	assert.NoError(t, ok.Err())
	assert.Equal(t, at, ok.Timestamp)

	warn := Warning("nothing matched", nil)
	assert.Empty(t, warn.Error)
	assert.NoError(t, warn.Err())

	failed := Failure("exec failed", errors.New("boom"))
	assert.True(t, failed.IsError())
	assert.Equal(t, "boom", failed.Error)
	assert.EqualError(t, failed.Err(), "exec failed: boom")

	assert.Equal(t, "unknown error", Failure("", nil).Error)
}
