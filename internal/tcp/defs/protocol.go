package defs

import "time"

// Protocol constants
const (
	// DefaultHeartbeatPort is the fixed port clients send liveness pings to
	DefaultHeartbeatPort = 31337

	// MaxMessageSize bounds a single inbound message
	MaxMessageSize = 1 << 20

	// ReadTimeout bounds how long a peer may take to send its whole message
	ReadTimeout = 10 * time.Second
	// WriteTimeout bounds how long a response may take to be written
	WriteTimeout = 30 * time.Second

	ConnectionRetryDelay = 100 * time.Millisecond
)
