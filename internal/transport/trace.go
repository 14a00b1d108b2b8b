package transport

import (
	"context"
	"net"

	"packetprobe/util"
)

// TraceDialer wraps another Dialer and returns connections that dump
// every byte crossing the wire at trace level.
type TraceDialer struct {
	Dialer Dialer
	Logger *util.Logger
}

// Dial connects through the wrapped dialer and wraps the result.
func (d *TraceDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	d.Logger.Trace("--- connected %s -> %s ---", conn.LocalAddr(), conn.RemoteAddr())
	return &TraceConn{Conn: conn, Logger: d.Logger}, nil
}

// Close closes the wrapped dialer.
func (d *TraceDialer) Close() error { return d.Dialer.Close() }

// TraceConn logs a hex dump of each read and write.  For a WebSocket this
// shows the HTTP upgrade exchange followed by the raw frames.
type TraceConn struct {
	net.Conn
	Logger *util.Logger
}

func (c *TraceConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.Logger.Trace("<<< recv %d byte(s)\n%s", n, util.HexDump(b[:n]))
	}
	return n, err
}

func (c *TraceConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.Logger.Trace(">>> send %d byte(s)\n%s", n, util.HexDump(b[:n]))
	}
	return n, err
}

func (c *TraceConn) Close() error {
	c.Logger.Trace("--- closing %s ---", c.Conn.RemoteAddr())
	return c.Conn.Close()
}
