package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultURL is the WebSocket endpoint probed when --url is absent.
	DefaultURL = "ws://localhost:5001"

	// DefaultWait is how long the WebSocket probe listens for replies
	// after sending the payload.
	DefaultWait = 2 * time.Second

	// DefaultConnectTimeout bounds a single WebSocket connect and
	// upgrade attempt.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultPollTimeout is the per-receive timeout inside the wait
	// window.  Expiry just starts the next poll.
	DefaultPollTimeout = 1 * time.Second

	// DefaultBackoffUnit is the linear backoff step: attempt n waits
	// n units before attempt n+1.
	DefaultBackoffUnit = 1 * time.Second

	// DefaultRetries is the attempt budget for both probes.
	DefaultRetries = 3

	// DefaultHost is the TCP probe target host.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the TCP probe target port.
	DefaultPort = 5001

	// DefaultTCPTimeout bounds the TCP connect and the single reply read.
	DefaultTCPTimeout = 5 * time.Second

	// DefaultDelay is the fixed pause between TCP attempts.
	DefaultDelay = 1 * time.Second

	// DefaultReadSize is the maximum reply read by the TCP probe.
	DefaultReadSize = 1024

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHTimeout bounds the SSH handshake with a jump host.
	DefaultSSHTimeout = 15 * time.Second

	// DefaultVerbose shows status lines but not per-attempt detail.
	DefaultVerbose = 1
)

// Payload is the single probe byte written on every successful
// connection.
const Payload byte = 0x47

// PayloadBytes returns a fresh one-byte slice holding Payload.
func PayloadBytes() []byte { return []byte{Payload} }
