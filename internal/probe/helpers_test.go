package probe

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	perr "packetprobe/internal/errors"
	"packetprobe/internal/transport"
	"packetprobe/util"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.  Trace
// output is written from the reader goroutine as well as the run loop.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// countingDialer counts Dial calls before delegating.
type countingDialer struct {
	transport.Dialer
	calls atomic.Int32
}

func (d *countingDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.calls.Add(1)
	return d.Dialer.Dial(ctx, network, address)
}

// failingDialer fails every Dial with err.
type failingDialer struct{ err error }

func (d failingDialer) Dial(context.Context, string, string) (net.Conn, error) { return nil, d.err }
func (failingDialer) Close() error                                             { return nil }

// authRejected is what the SSH dialer returns when the jump host turns
// down the credentials.
func authRejected() error {
	return fmt.Errorf("tunnel: %w", perr.WrapSSH("auth", "bastion", 22,
		fmt.Errorf("%w: ssh: unable to authenticate", perr.ErrAuthFailed)))
}

func testLogger(t *testing.T, level util.LogLevel) (*util.Logger, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	logger := util.NewLogger(int(level))
	logger.SetOutput(buf)
	logger.SetTimestamps(false)
	return logger, buf
}

// closedAddr returns a loopback address nothing is listening on.
func closedAddr(t *testing.T) string {
	t.Helper()
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	return util.FormatAddr("127.0.0.1", port)
}
