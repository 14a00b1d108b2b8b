package config

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	perr "packetprobe/internal/errors"
)

// ── ParseTunnelSpec ──────────────────────────────────────────────────

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "admin@bastion.example.com:2222", "admin", "bastion.example.com", 2222, false},
		{"no port", "root@gateway", "root", "gateway", 22, false},
		{"no user", "jump-host:2200", "", "jump-host", 2200, false},
		{"host only", "gateway.local", "", "gateway.local", 22, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

// ── ParsePort ────────────────────────────────────────────────────────

func TestParsePort(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"80", 80, false},
		{"5001", 5001, false},
		{" 443 ", 443, false},
		{"65535", 65535, false},
		{"0", 0, true},
		{"70000", 0, true},
		{"abc", 0, true},
		{"80-90", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePort(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePort(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePort(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ── Defaults ─────────────────────────────────────────────────────────

func TestDefaultWS(t *testing.T) {
	cfg := DefaultWS()
	if cfg.URL != "ws://localhost:5001" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Wait != 2*time.Second {
		t.Errorf("Wait = %v, want 2s", cfg.Wait)
	}
	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want 10s", cfg.ConnectTimeout)
	}
	if cfg.PollTimeout != time.Second {
		t.Errorf("PollTimeout = %v, want 1s", cfg.PollTimeout)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Retries)
	}
	if cfg.Trace {
		t.Error("Trace should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultTCP(t *testing.T) {
	cfg := DefaultTCP()
	if cfg.Host != "127.0.0.1" || cfg.Port != 5001 {
		t.Errorf("target = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", cfg.Delay)
	}
	if cfg.ReadSize != 1024 {
		t.Errorf("ReadSize = %d, want 1024", cfg.ReadSize)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Retries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestPayloadBytes(t *testing.T) {
	b := PayloadBytes()
	if len(b) != 1 || b[0] != 0x47 {
		t.Fatalf("PayloadBytes() = %x, want 47", b)
	}
	b[0] = 0
	if PayloadBytes()[0] != 0x47 {
		t.Error("PayloadBytes must return a fresh slice")
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0.5, 500 * time.Millisecond},
		{2, 2 * time.Second},
		{0, 0},
	}
	for _, tt := range tests {
		got, err := Seconds("wait", tt.in)
		if err != nil {
			t.Errorf("Seconds(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Seconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeconds_OutOfRange(t *testing.T) {
	for _, sec := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 1e30, -1e30} {
		_, err := Seconds("wait", sec)
		var ce *perr.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Seconds(%v) err = %v, want ConfigError", sec, err)
			continue
		}
		if ce.Field != "wait" || !strings.Contains(ce.Message, "finite") {
			t.Errorf("Seconds(%v) = %+v", sec, ce)
		}
	}
}

// ── TunnelConfig.Resolve ─────────────────────────────────────────────

func TestTunnelResolve(t *testing.T) {
	tc := TunnelConfig{Spec: "bastion:2200"}
	if err := tc.Resolve("alice"); err != nil {
		t.Fatal(err)
	}
	if tc.User != "alice" || tc.Host != "bastion" || tc.Port != 2200 {
		t.Errorf("got %+v", tc)
	}

	tc = TunnelConfig{Spec: "root@gw"}
	if err := tc.Resolve("alice"); err != nil {
		t.Fatal(err)
	}
	if tc.User != "root" || tc.Port != 22 {
		t.Errorf("got %+v", tc)
	}

	tc = TunnelConfig{Spec: "gw:notaport"}
	if err := tc.Resolve("alice"); err == nil {
		t.Error("expected error for bad spec")
	}

	tc = TunnelConfig{}
	if err := tc.Resolve("alice"); err != nil || tc.Enabled() {
		t.Errorf("empty spec: err=%v enabled=%v", err, tc.Enabled())
	}
}
