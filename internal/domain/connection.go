package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAgentURL  = "http://localhost:8563"
	DefaultAgentPort = 8563
)

type Connection struct {
	BaseURL     string
	Host        string
	Port        int
	SessionID   string
	Connected   bool
	ConnectedAt time.Time
}

// ParseConnection validates rawURL and returns a disconnected descriptor for it.
func ParseConnection(rawURL string) (Connection, error) {
	rawURL = strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if rawURL == "" {
		return Connection{}, errors.New("agent url is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Connection{}, fmt.Errorf("parse agent url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Connection{}, errors.New("agent url must use http or https")
	}
	if parsed.Hostname() == "" {
		return Connection{}, errors.New("agent url host is required")
	}

	port := DefaultAgentPort
	if raw := parsed.Port(); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return Connection{}, fmt.Errorf("parse agent url port: %w", err)
		}
	}

	return Connection{
		BaseURL: rawURL,
		Host:    parsed.Hostname(),
		Port:    port,
	}, nil
}

func (c Connection) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
