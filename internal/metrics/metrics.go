// Package metrics provides lightweight, lock-free counters for tracking
// the statistics of a single probe run.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one probe run.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	attempts         atomic.Int64
	failedAttempts   atomic.Int64
	connections      atomic.Int64
	bytesIn          atomic.Int64
	bytesOut         atomic.Int64
	messagesReceived atomic.Int64
	receiveTimeouts  atomic.Int64
	errorsTotal      atomic.Int64

	mu             sync.RWMutex
	startTime      time.Time
	connectLatency time.Duration
	lastError      time.Time
	lastErrorMsg   string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// AttemptStarted counts one connection attempt.
func (c *Collector) AttemptStarted() {
	if c == nil {
		return
	}
	c.attempts.Add(1)
}

// AttemptFailed counts one failed connection attempt.
func (c *Collector) AttemptFailed() {
	if c == nil {
		return
	}
	c.failedAttempts.Add(1)
}

// Connected records a successful connection and how long the winning
// attempt took.
func (c *Collector) Connected(latency time.Duration) {
	if c == nil {
		return
	}
	c.connections.Add(1)
	c.mu.Lock()
	c.connectLatency = latency
	c.mu.Unlock()
}

// Attempts returns the number of connection attempts made.
func (c *Collector) Attempts() int64 {
	if c == nil {
		return 0
	}
	return c.attempts.Load()
}

// FailedAttempts returns the number of attempts that did not connect.
func (c *Collector) FailedAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.failedAttempts.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// MessageReceived records one complete message or read.
func (c *Collector) MessageReceived() {
	if c == nil {
		return
	}
	c.messagesReceived.Add(1)
}

// ReceiveTimeout records a receive poll that expired without data.
func (c *Collector) ReceiveTimeout() {
	if c == nil {
		return
	}
	c.receiveTimeouts.Add(1)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// MessagesReceived returns the number of messages received.
func (c *Collector) MessagesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.messagesReceived.Load()
}

// ReceiveTimeouts returns the number of empty receive polls.
func (c *Collector) ReceiveTimeouts() int64 {
	if c == nil {
		return 0
	}
	return c.receiveTimeouts.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Elapsed          string `json:"elapsed"`
	Attempts         int64  `json:"attempts"`
	FailedAttempts   int64  `json:"failed_attempts"`
	Connections      int64  `json:"connections"`
	ConnectLatency   string `json:"connect_latency,omitempty"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	MessagesReceived int64  `json:"messages_received"`
	ReceiveTimeouts  int64  `json:"receive_timeouts"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Elapsed:          time.Since(c.startTime).Truncate(time.Millisecond).String(),
		Attempts:         c.attempts.Load(),
		FailedAttempts:   c.failedAttempts.Load(),
		Connections:      c.connections.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesOut:         c.bytesOut.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		ReceiveTimeouts:  c.receiveTimeouts.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if c.connections.Load() > 0 {
		s.ConnectLatency = c.connectLatency.Truncate(time.Microsecond).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
