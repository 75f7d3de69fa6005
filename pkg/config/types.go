package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	errBackendURLRequired = errors.New("backend_url is required")
	errListenAddrRequired = errors.New("listen_addr is required")
	errNoSeedDevices      = errors.New("at least one seed device is required")
)

// Client configures the dashboard client binary.
type Client struct {
	BackendURL     string `json:"backend_url"`
	PushURL        string `json:"push_url"`
	Token          string `json:"token"`
	BufferCapacity int    `json:"buffer_capacity,omitempty"`
}

// ApplyEnv overrides fields from the environment (OMNI_BACKEND_URL,
// OMNI_PUSH_URL, OMNI_TOKEN, OMNI_BUFFER_CAPACITY).
func (c *Client) ApplyEnv() {
	if v := os.Getenv("OMNI_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}

	if v := os.Getenv("OMNI_PUSH_URL"); v != "" {
		c.PushURL = v
	}

	if v := os.Getenv("OMNI_TOKEN"); v != "" {
		c.Token = v
	}

	if v := os.Getenv("OMNI_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BufferCapacity = n
		}
	}
}

// Validate checks required fields and derives the push URL from the
// backend URL when it is not set explicitly.
func (c *Client) Validate() error {
	if c.BackendURL == "" {
		return errBackendURLRequired
	}

	if c.PushURL == "" {
		c.PushURL = derivePushURL(c.BackendURL)
	}

	return nil
}

// derivePushURL turns an http(s) base URL into the matching ws(s)
// push endpoint.
func derivePushURL(base string) string {
	ws := base

	switch {
	case strings.HasPrefix(base, "https://"):
		ws = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		ws = "ws://" + strings.TrimPrefix(base, "http://")
	}

	return strings.TrimRight(ws, "/") + "/ws"
}

// SeedDevice is one device the simulator serves and emits readings for.
type SeedDevice struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Simulator configures the backend simulator binary.
type Simulator struct {
	ListenAddr   string       `json:"listen_addr"`
	DBPath       string       `json:"db_path"`
	EmitInterval Duration     `json:"emit_interval"`
	Devices      []SeedDevice `json:"devices"`
}

// Validate checks required fields and applies defaults.
func (s *Simulator) Validate() error {
	if s.ListenAddr == "" {
		return errListenAddrRequired
	}

	if len(s.Devices) == 0 {
		return errNoSeedDevices
	}

	if s.DBPath == "" {
		s.DBPath = "omnisim.db"
	}

	if s.EmitInterval == 0 {
		s.EmitInterval = Duration(30 * time.Second)
	}

	return nil
}
