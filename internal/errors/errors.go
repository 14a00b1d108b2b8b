// Package errors provides domain-specific error types for the probes.
//
// These types carry structured context (operation, address, host) that
// helps callers decide how to handle failures and provides better
// diagnostics than plain string wrapping.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrAllAttemptsFailed = errors.New("all connection attempts failed")
	ErrNotConnected      = errors.New("not connected")
	ErrAuthFailed        = errors.New("authentication failed")
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitUsage  = 1
	ExitFailed = 2
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op   string // operation: "dial", "handshake", "write", "read"
	Addr string // network address or URL involved
	Err  error  // underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HandshakeError is a failed WebSocket upgrade.  Status is the HTTP
// status line returned by the server, empty when no response arrived.
type HandshakeError struct {
	URL    string
	Status string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("websocket handshake %s: %v (server replied %q)", e.URL, e.Err, e.Status)
	}
	return fmt.Sprintf("websocket handshake %s: %v", e.URL, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTimeout reports whether err is a deadline or timeout expiry.  Read
// timeouts during a probe's receive window are expected and non-fatal.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsRetryable reports whether another connection attempt could succeed
// after err.  Rejected jump-host credentials and unusable host-key
// settings are final; every other failure may clear on a later attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailed) {
		return false
	}
	var se *SSHError
	return !(errors.As(err, &se) && se.Op == "hostkey")
}

// ExitCode maps an error returned by a probe command to a process exit
// status: 0 for nil, 2 when every connection attempt failed, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrAllAttemptsFailed):
		return ExitFailed
	default:
		return ExitUsage
	}
}

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }
