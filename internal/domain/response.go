package domain

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

type Response struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func Success(message string, data any) Response {
	return Response{Status: StatusSuccess, Message: message, Data: data}
}

func Warning(message string, data any) Response {
	return Response{Status: StatusWarning, Message: message, Data: data}
}

// Failure builds an error response; Error is never empty.
func Failure(message string, err error) Response {
	text := "unknown error"
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		text = err.Error()
	}

	return Response{Status: StatusError, Message: message, Error: text}
}

func (r Response) WithTimestamp(at time.Time) Response {
	r.Timestamp = at
	return r
}

func (r Response) IsError() bool {
	return r.Status == StatusError
}

// Err returns nil unless the response carries an error status.
func (r Response) Err() error {
	if !r.IsError() {
		return nil
	}
	if r.Message == "" {
		return errors.New(r.Error)
	}

	return errors.New(r.Message + ": " + r.Error)
}
