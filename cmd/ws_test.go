package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"

	perr "packetprobe/internal/errors"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// TestExecuteWS_EchoAck runs the full CLI against a server that answers
// the probe with b"ack".
func TestExecuteWS_EchoAck(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, data, err := conn.ReadMessage(); err != nil || !bytes.Equal(data, []byte{0x47}) {
			return
		}
		conn.WriteMessage(websocket.BinaryMessage, []byte("ack")) //nolint:errcheck
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := ExecuteWS(context.Background(),
		[]string{"--url", wsURL(srv), "--wait", "0.3", "--poll-timeout", "0.05", "--stats"},
		&stdout, &stderr)
	if err != nil {
		t.Fatalf("ExecuteWS: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Received from server: b'ack'") {
		t.Errorf("stdout = %q", stdout.String())
	}
	logs := stderr.String()
	for _, want := range []string{"connecting to " + wsURL(srv), "sending payload: b'G'", `"messages_received": 1`} {
		if !strings.Contains(logs, want) {
			t.Errorf("stderr missing %q:\n%s", want, logs)
		}
	}
}

// TestExecuteWS_Refused verifies exactly --retries upgrade attempts and
// exit status 2.
func TestExecuteWS_Refused(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := ExecuteWS(context.Background(),
		[]string{"--url", wsURL(srv), "--retries", "2", "--backoff", "0.01"},
		&stdout, &stderr)

	if perr.ExitCode(err) != perr.ExitFailed {
		t.Fatalf("ExitCode = %d (%v), want 2", perr.ExitCode(err), err)
	}
	if hits.Load() != 2 {
		t.Errorf("server saw %d connects, want 2", hits.Load())
	}
	if !strings.Contains(stderr.String(), "all connection attempts failed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

// TestExecuteWS_Quiet verifies -q suppresses status lines but not the
// received data.
func TestExecuteWS_Quiet(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()                                        //nolint:errcheck
		conn.WriteMessage(websocket.TextMessage, []byte("ready")) //nolint:errcheck
		conn.ReadMessage()                                        //nolint:errcheck
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := ExecuteWS(context.Background(),
		[]string{"--url", wsURL(srv), "--wait", "0.2", "-q"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("ExecuteWS: %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}
	if stdout.String() != "Received from server: 'ready'\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

// TestExecuteWS_Validation verifies bad values are usage errors.
func TestExecuteWS_Validation(t *testing.T) {
	for _, args := range [][]string{
		{"--url", "http://localhost:5001"},
		{"--wait", "-1"},
		{"--wait", "inf"},
		{"--wait", "nan"},
		{"--backoff", "1e30"},
		{"--connect-timeout", "0"},
		{"--retries", "0"},
		{"-H", "no-colon"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := ExecuteWS(context.Background(), args, &stdout, &stderr)
			if err == nil {
				t.Fatal("expected error")
			}
			if perr.ExitCode(err) != perr.ExitUsage {
				t.Errorf("ExitCode = %d, want 1", perr.ExitCode(err))
			}
		})
	}
}

// TestExecuteWS_WaitOverflow verifies an unrepresentable wait names the
// flag instead of being rejected as non-positive.
func TestExecuteWS_WaitOverflow(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := ExecuteWS(context.Background(), []string{"--wait", "1e30"}, &stdout, &stderr)
	var ce *perr.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
	if ce.Field != "wait" || !strings.Contains(err.Error(), "finite") {
		t.Errorf("err = %v", err)
	}
}

// TestExecuteWS_Headers verifies -H and --origin reach the server.
func TestExecuteWS_Headers(t *testing.T) {
	got := make(chan http.Header, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage() //nolint:errcheck
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := ExecuteWS(context.Background(), []string{
		"--url", wsURL(srv), "--wait", "0",
		"-H", "Authorization: Bearer t0k3n", "--origin", "http://console.local",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("ExecuteWS: %v", err)
	}

	h := <-got
	if h.Get("Authorization") != "Bearer t0k3n" {
		t.Errorf("Authorization = %q", h.Get("Authorization"))
	}
	if h.Get("Origin") != "http://console.local" {
		t.Errorf("Origin = %q", h.Get("Origin"))
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in, name, value string
		wantErr         bool
	}{
		{"X-Key: abc", "X-Key", "abc", false},
		{"X-Key:abc:def", "X-Key", "abc:def", false},
		{"X-Empty:", "X-Empty", "", false},
		{": abc", "", "", true},
		{"novalue", "", "", true},
	}
	for _, tt := range tests {
		name, value, err := parseHeader(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHeader(%q) err = %v", tt.in, err)
			continue
		}
		if name != tt.name || value != tt.value {
			t.Errorf("parseHeader(%q) = %q, %q", tt.in, name, value)
		}
	}
}
