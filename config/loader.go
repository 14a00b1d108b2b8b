package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags that were explicitly set  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the PROBE_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations are seconds
// and may be fractional.  Values that fail to parse are ignored.

// LoadWSFromEnv overlays environment variables onto cfg.
func LoadWSFromEnv(cfg *WSConfig) {
	if v := os.Getenv("PROBE_URL"); v != "" {
		cfg.URL = v
	}
	if v, ok := envSeconds("PROBE_WAIT"); ok {
		cfg.Wait = v
	}
	if v, ok := envSeconds("PROBE_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = v
	}
	if v, ok := envSeconds("PROBE_POLL_TIMEOUT"); ok {
		cfg.PollTimeout = v
	}
	if v, ok := envSeconds("PROBE_BACKOFF"); ok {
		cfg.Backoff = v
	}
	if v := os.Getenv("PROBE_ORIGIN"); v != "" {
		cfg.Origin = v
	}
	if envBool("PROBE_INSECURE") {
		cfg.Insecure = true
	}
	loadCommonFromEnv(&cfg.Common)
}

// LoadTCPFromEnv overlays environment variables onto cfg.
func LoadTCPFromEnv(cfg *TCPConfig) {
	if v := os.Getenv("PROBE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("PROBE_PORT"); v > 0 {
		cfg.Port = v
	}
	if v, ok := envSeconds("PROBE_TIMEOUT"); ok {
		cfg.Timeout = v
	}
	if v, ok := envSeconds("PROBE_DELAY"); ok {
		cfg.Delay = v
	}
	if v := envInt("PROBE_READ_SIZE"); v > 0 {
		cfg.ReadSize = v
	}
	if envBool("PROBE_NO_DNS") {
		cfg.NoDNS = true
	}
	loadCommonFromEnv(&cfg.Common)
}

func loadCommonFromEnv(c *Common) {
	if v := envInt("PROBE_RETRIES"); v > 0 {
		c.Retries = v
	}
	if v := envInt("PROBE_VERBOSE"); v > 0 {
		c.Verbose = v
	}
	if envBool("PROBE_QUIET") {
		c.Quiet = true
	}
	if envBool("PROBE_TRACE") {
		c.Trace = true
	}
	if envBool("PROBE_TIMESTAMPS") {
		c.Timestamps = true
	}
	if envBool("PROBE_STATS") {
		c.Stats = true
	}

	// SSH tunnel
	if v := os.Getenv("PROBE_TUNNEL"); v != "" {
		c.Tunnel.Spec = v
	}
	if v := os.Getenv("PROBE_SSH_KEY"); v != "" {
		c.Tunnel.KeyPath = v
	}
	if envBool("PROBE_SSH_PASSWORD") {
		c.Tunnel.Password = true
	}
	if v := os.Getenv("PROBE_SSH_PASS"); v != "" {
		c.Tunnel.Secret = v
	}
	if envBool("PROBE_SSH_AGENT") {
		c.Tunnel.Agent = true
	}
	if envBool("PROBE_STRICT_HOSTKEY") {
		c.Tunnel.StrictHostKey = true
	}
	if v := os.Getenv("PROBE_KNOWN_HOSTS"); v != "" {
		c.Tunnel.KnownHosts = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envSeconds(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	sec, err := strconv.ParseFloat(v, 64)
	if err != nil || sec < 0 {
		return 0, false
	}
	d, err := Seconds(key, sec)
	if err != nil {
		return 0, false
	}
	return d, true
}
