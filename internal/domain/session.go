package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const (
	JobStateScheduled JobState = "SCHEDULED"

	RecordTypeStatus = "status"
)

type Session struct {
	ID         string
	ConsumerID string
}

type JobState string

// JobID accepts both numeric and string ids from the agent.
type JobID string

func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*id = JobID(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("decode job id: %w", err)
	}
	*id = JobID(number.String())

	return nil
}

type Job struct {
	ID    JobID
	State JobState
}

// ResultRecord keeps the agent's raw JSON so it can be echoed back unchanged.
type ResultRecord struct {
	Type       string
	StatusCode *int
	raw        json.RawMessage
}

type resultRecordHead struct {
	Type       string `json:"type"`
	StatusCode *int   `json:"statusCode,omitempty"`
}

// UnmarshalJSON never rejects a record: a non-object record keeps an empty
// Type, and a statusCode that is not an integral number is left unset.
func (r *ResultRecord) UnmarshalJSON(data []byte) error {
	r.Type = ""
	r.StatusCode = nil
	r.raw = append(json.RawMessage(nil), data...)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if rawType, ok := fields["type"]; ok {
		var recordType string
		if err := json.Unmarshal(rawType, &recordType); err == nil {
			r.Type = recordType
		}
	}
	if rawCode, ok := fields["statusCode"]; ok {
		r.StatusCode = decodeStatusCode(rawCode)
	}

	return nil
}

func decodeStatusCode(raw json.RawMessage) *int {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return nil
	}
	// json.Number also accepts quoted strings; only bare numbers count.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] == '"' {
		return nil
	}

	value, err := number.Float64()
	if err != nil || value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
		return nil
	}

	code := int(value)
	return &code
}

func (r ResultRecord) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}

	return json.Marshal(resultRecordHead{Type: r.Type, StatusCode: r.StatusCode})
}

func (r ResultRecord) Raw() json.RawMessage {
	return r.raw
}

// IsTerminal reports whether the record is the agent's job-finished marker.
func (r ResultRecord) IsTerminal() bool {
	return r.Type == RecordTypeStatus && r.StatusCode != nil && *r.StatusCode == 0
}

type PollBatch []ResultRecord

func (b PollBatch) HasTerminalMarker() bool {
	for _, record := range b {
		if record.IsTerminal() {
			return true
		}
	}

	return false
}
