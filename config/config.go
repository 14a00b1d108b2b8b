// Package config defines the runtime configuration for the WebSocket and
// TCP probes and provides helpers for parsing tunnel specifications and
// ports.
package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	perr "packetprobe/internal/errors"
)

// Common holds the settings shared by both probes.
type Common struct {
	Retries    int
	Verbose    int
	Quiet      bool
	Trace      bool
	Stats      bool
	Timestamps bool
	Tunnel     TunnelConfig
}

// WSConfig holds every tuneable for a WebSocket probe run.
type WSConfig struct {
	// ── Connection ───────────────────────────────────────────────────
	URL            string
	Wait           time.Duration
	ConnectTimeout time.Duration
	PollTimeout    time.Duration
	Backoff        time.Duration // linear unit

	// ── Handshake ────────────────────────────────────────────────────
	Origin   string
	Headers  map[string]string
	Insecure bool // skip TLS verification for wss://

	Common
}

// TCPConfig holds every tuneable for a TCP probe run.
type TCPConfig struct {
	Host     string
	Port     int
	Timeout  time.Duration
	Delay    time.Duration
	ReadSize int
	NoDNS    bool

	Common
}

// TunnelConfig describes the optional SSH jump host.
type TunnelConfig struct {
	Spec          string // raw [user@]host[:port]
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      bool   // true → prompt interactively
	Secret        string // non-interactive password, env only
	Agent         bool
	StrictHostKey bool
	KnownHosts    string
}

// Enabled reports whether a jump host was requested.
func (t *TunnelConfig) Enabled() bool { return t.Spec != "" || t.Host != "" }

// DefaultWS returns a WSConfig populated with defaults.
func DefaultWS() *WSConfig {
	return &WSConfig{
		URL:            DefaultURL,
		Wait:           DefaultWait,
		ConnectTimeout: DefaultConnectTimeout,
		PollTimeout:    DefaultPollTimeout,
		Backoff:        DefaultBackoffUnit,
		Headers:        map[string]string{},
		Common:         defaultCommon(),
	}
}

// DefaultTCP returns a TCPConfig populated with defaults.
func DefaultTCP() *TCPConfig {
	return &TCPConfig{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Timeout:  DefaultTCPTimeout,
		Delay:    DefaultDelay,
		ReadSize: DefaultReadSize,
		Common:   defaultCommon(),
	}
}

func defaultCommon() Common {
	return Common{
		Retries: DefaultRetries,
		Verbose: DefaultVerbose,
		Tunnel:  TunnelConfig{Port: DefaultSSHPort},
	}
}

// maxSeconds is the largest number of seconds a Duration can hold.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Seconds converts a float number of seconds for the named setting to a
// Duration.  NaN, infinities and values outside the Duration range are
// rejected; the sign is left for Validate.
func Seconds(field string, sec float64) (time.Duration, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || math.Abs(sec) > maxSeconds {
		return 0, &perr.ConfigError{
			Field:   field,
			Value:   sec,
			Message: "is not a finite number of seconds",
			Hint:    fmt.Sprintf("use a value between 0 and %.0f", maxSeconds),
		}
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = ParsePort(m[3])
		if err != nil {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// Resolve fills User, Host and Port from Spec.  A missing user falls
// back to $USER so "-T bastion" works like ssh(1).
func (t *TunnelConfig) Resolve(currentUser string) error {
	if t.Spec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(t.Spec)
	if err != nil {
		return &perr.ConfigError{
			Field:   "tunnel",
			Value:   t.Spec,
			Message: err.Error(),
			Hint:    "use --tunnel user@host[:port]",
		}
	}
	if user == "" {
		user = currentUser
	}
	t.User, t.Host, t.Port = user, host, port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *WSConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}

	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return &perr.ConfigError{
			Field:   "url",
			Value:   c.URL,
			Message: "not a valid WebSocket URL",
			Hint:    "expected ws://host[:port][/path] or wss://...",
		}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &perr.ConfigError{
			Field:   "url",
			Value:   c.URL,
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
			Hint:    "use ws:// or wss://",
		}
	}
	if c.Wait < 0 {
		return &perr.ConfigError{
			Field:   "wait",
			Value:   c.Wait.Seconds(),
			Message: "must not be negative",
			Hint:    "use --wait 0 to skip listening for replies",
		}
	}
	if c.ConnectTimeout <= 0 {
		return &perr.ConfigError{
			Field:   "connect-timeout",
			Value:   c.ConnectTimeout.Seconds(),
			Message: "must be greater than zero",
		}
	}
	if c.PollTimeout <= 0 {
		return &perr.ConfigError{
			Field:   "poll-timeout",
			Value:   c.PollTimeout.Seconds(),
			Message: "must be greater than zero",
		}
	}
	if c.Backoff < 0 {
		return &perr.ConfigError{
			Field:   "backoff",
			Value:   c.Backoff.Seconds(),
			Message: "must not be negative",
		}
	}
	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			return &perr.ConfigError{
				Field:   "header",
				Message: "header name is empty",
				Hint:    `use -H "Name: value"`,
			}
		}
	}
	return nil
}

// Validate checks that the configuration is internally consistent.
func (c *TCPConfig) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}

	if c.Host == "" {
		return &perr.ConfigError{
			Field:   "host",
			Message: "hostname is required",
			Hint:    "use --host <address>",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &perr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
		}
	}
	if c.Timeout <= 0 {
		return &perr.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout.Seconds(),
			Message: "must be greater than zero",
		}
	}
	if c.Delay < 0 {
		return &perr.ConfigError{
			Field:   "delay",
			Value:   c.Delay.Seconds(),
			Message: "must not be negative",
			Hint:    "use --delay 0 to retry immediately",
		}
	}
	if c.ReadSize < 1 {
		return &perr.ConfigError{
			Field:   "read-size",
			Value:   c.ReadSize,
			Message: "must be at least 1",
		}
	}
	if c.NoDNS && net.ParseIP(c.Host) == nil {
		return &perr.ConfigError{
			Field:   "host",
			Value:   c.Host,
			Message: "numeric-only mode requires an IP address",
			Hint:    "drop -n or pass an IP literal",
		}
	}
	return nil
}

func (c *Common) validate() error {
	if c.Retries < 1 {
		return &perr.ConfigError{
			Field:   "retries",
			Value:   c.Retries,
			Message: "must be at least 1",
			Hint:    "the probe needs at least one connection attempt",
		}
	}
	if c.Tunnel.Enabled() && c.Tunnel.Host == "" {
		return &perr.ConfigError{
			Field:   "tunnel",
			Value:   c.Tunnel.Spec,
			Message: "tunnel host is required",
			Hint:    "use --tunnel user@host[:port]",
		}
	}
	if c.Tunnel.Enabled() && c.Tunnel.User == "" {
		return &perr.ConfigError{
			Field:   "tunnel",
			Value:   c.Tunnel.Spec,
			Message: "tunnel user is required",
			Hint:    "use --tunnel user@host or set $USER",
		}
	}
	return nil
}
