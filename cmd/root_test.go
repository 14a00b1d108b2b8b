package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "packetprobe/internal/errors"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	for name, exec := range map[string]func(context.Context, []string, *bytes.Buffer, *bytes.Buffer) error{
		"wsprobe":  execWS,
		"tcpprobe": execTCP,
	} {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := exec(context.Background(), []string{"--version"}, &stdout, &stderr); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := stdout.String(); got != name+" "+version+"\n" {
				t.Errorf("stdout = %q", got)
			}
		})
	}
}

// TestExecute_Help verifies --help prints usage and returns nil.
func TestExecute_Help(t *testing.T) {
	tests := []struct {
		name string
		exec func(context.Context, []string, *bytes.Buffer, *bytes.Buffer) error
		want []string
	}{
		{"wsprobe", execWS, []string{"--url", "--wait", "--connect-timeout", "--trace", "--retries", "--header"}},
		{"tcpprobe", execTCP, []string{"--host", "--port", "--timeout", "--delay", "--retries", "--no-dns"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := tt.exec(context.Background(), []string{"-h"}, &stdout, &stderr); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("usage missing %q", w)
				}
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags and stray arguments
// produce usage errors.
func TestExecute_InvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--nonexistent-flag"},
		{"--retries", "many"},
		{"--retries", "0"},
		{"stray"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := execTCP(context.Background(), args, &stdout, &stderr)
			if err == nil {
				t.Fatal("expected error")
			}
			if perr.ExitCode(err) != perr.ExitUsage {
				t.Errorf("ExitCode = %d, want 1", perr.ExitCode(err))
			}
		})
	}
}

// TestExecute_ConfigFileMissing verifies a bad --config path is a usage
// error.
func TestExecute_ConfigFileMissing(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := execWS(context.Background(),
		[]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, &stdout, &stderr)
	if err == nil || perr.ExitCode(err) != perr.ExitUsage {
		t.Fatalf("err = %v", err)
	}
}

// TestExecute_Precedence verifies flags beat env, env beats the config
// file, and the file beats defaults.
func TestExecute_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	body := "retries: 4\ntcp:\n  host: 10.0.0.1\n  port: 6000\n  delay: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{"defaults", nil, nil, "target=127.0.0.1:5001 timeout=5s delay=1s retries=3"},
		{"file", nil, []string{"--config", path}, "target=10.0.0.1:6000 timeout=5s delay=3s retries=4"},
		{"env over file", map[string]string{"PROBE_PORT": "7000", "PROBE_DELAY": "0.5"},
			[]string{"--config", path}, "target=10.0.0.1:7000 timeout=5s delay=500ms retries=4"},
		{"flag over env", map[string]string{"PROBE_PORT": "7000"},
			[]string{"--config", path, "--port", "8000", "--retries", "1"}, "target=10.0.0.1:8000 timeout=5s delay=3s retries=1"},
		{"env config path", map[string]string{"PROBE_CONFIG": path}, nil, "target=10.0.0.1:6000 timeout=5s delay=3s retries=4"},
		{"explicit default flag wins", map[string]string{"PROBE_PORT": "7000"},
			[]string{"--port", "5001"}, "target=127.0.0.1:5001 timeout=5s delay=1s retries=3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var stdout, stderr bytes.Buffer
			args := append([]string{"--dry-run"}, tt.args...)
			if err := execTCP(context.Background(), args, &stdout, &stderr); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.TrimSpace(stdout.String()); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

// TestExecute_TunnelSpec verifies a malformed tunnel spec is rejected
// before any connection is made.
func TestExecute_TunnelSpec(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := execWS(context.Background(), []string{"--tunnel", "user@host:notaport", "--dry-run"}, &stdout, &stderr)
	var ce *perr.ConfigError
	if !errors.As(err, &ce) || ce.Field != "tunnel" {
		t.Fatalf("err = %v, want tunnel ConfigError", err)
	}
}

func execWS(ctx context.Context, args []string, stdout, stderr *bytes.Buffer) error {
	return ExecuteWS(ctx, args, stdout, stderr)
}

func execTCP(ctx context.Context, args []string, stdout, stderr *bytes.Buffer) error {
	return ExecuteTCP(ctx, args, stdout, stderr)
}
