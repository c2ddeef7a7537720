package domain

import "errors"

var (
	ErrTransport          = errors.New("transport error")
	ErrProtocol           = errors.New("protocol error")
	ErrPollTimeout        = errors.New("poll attempt timed out")
	ErrNotConnected       = errors.New("not connected to arthas")
	ErrConnectionNotFound = errors.New("connection not found")
)
