package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"packetprobe/config"
	perr "packetprobe/internal/errors"
	"packetprobe/internal/metrics"
	"packetprobe/internal/retry"
	"packetprobe/internal/transport"
	"packetprobe/util"
)

// WSProbe connects to a WebSocket endpoint, sends one binary frame and
// prints every message that arrives within the wait window.
type WSProbe struct {
	URL            string
	Header         http.Header
	TLSConfig      *tls.Config
	Wait           time.Duration
	ConnectTimeout time.Duration
	PollTimeout    time.Duration
	Payload        []byte

	Dialer  transport.Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

// wsMessage is one result of the reader goroutine.
type wsMessage struct {
	kind int
	data []byte
	err  error
}

// Run performs the probe.  It returns an error wrapping
// [perr.ErrAllAttemptsFailed] when no attempt connected, or the final
// error itself when retrying could not help.
func (p *WSProbe) Run(ctx context.Context) (*Report, error) {
	defer p.Dialer.Close()

	report := newReport(p.URL, p.Metrics)
	log := p.Logger.With("run", report.ShortID())

	log.Info("connecting to %s (timeout=%s, retries=%d)",
		p.URL, p.ConnectTimeout, p.Backoff.MaxAttempts)

	bo := *p.Backoff
	bo.OnRetry = func(attempt int, err error, wait time.Duration) {
		if wait > 0 {
			log.Info("retrying in %s...", wait)
		}
	}

	var conn *websocket.Conn
	err := bo.Do(ctx, func(attempt int) error {
		report.Attempts = attempt
		p.Metrics.AttemptStarted()
		start := time.Now()

		c, err := p.dial(ctx)
		if err != nil {
			p.Metrics.AttemptFailed()
			p.Metrics.RecordError(err.Error())
			log.Warn("connect attempt %d failed: %v", attempt, err)
			if ctx.Err() != nil || !perr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}

		p.Metrics.Connected(time.Since(start))
		log.Verbose("connected to %s in %s", p.URL, time.Since(start).Round(time.Millisecond))
		conn = c
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return report, fmt.Errorf("interrupted: %w", ctx.Err())
		}
		if !perr.IsRetryable(err) {
			log.Error("giving up after attempt %d: %v", report.Attempts, err)
			return report, err
		}
		log.Error("all connection attempts failed")
		return report, fmt.Errorf("%w: %w", perr.ErrAllAttemptsFailed, err)
	}
	report.Connected = true
	defer closeWS(conn, log)

	payload := p.Payload
	if len(payload) == 0 {
		payload = config.PayloadBytes()
	}
	log.Info("sending payload: %s", util.QuoteBytes(payload))
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		p.Metrics.RecordError(err.Error())
		return report, perr.Wrap("write", p.URL, err)
	}
	report.Sent = len(payload)
	p.Metrics.BytesSent(int64(len(payload)))

	log.Info("sent, waiting %s for server responses...", p.Wait)
	if err := p.receive(ctx, conn, report, log); err != nil {
		return report, fmt.Errorf("interrupted: %w", err)
	}
	log.Info("done, closing connection")
	return report, nil
}

// dial performs one connect + upgrade attempt.
func (p *WSProbe) dial(ctx context.Context) (*websocket.Conn, error) {
	d := websocket.Dialer{
		HandshakeTimeout: p.ConnectTimeout,
		NetDialContext:   p.Dialer.Dial,
		TLSClientConfig:  p.TLSConfig,
	}

	conn, resp, err := d.DialContext(ctx, p.URL, p.Header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, &perr.HandshakeError{URL: p.URL, Status: resp.Status, Err: err}
		}
		return nil, perr.Wrap("dial", p.URL, err)
	}
	return conn, nil
}

// receive polls for messages until the wait window closes.  A poll that
// times out starts the next one; any other read failure ends the loop
// and is reported as non-fatal.  Only cancellation of ctx is returned.
func (p *WSProbe) receive(ctx context.Context, conn *websocket.Conn, report *Report, log *util.Logger) error {
	if p.Wait <= 0 {
		return nil
	}

	deadline := time.Now().Add(p.Wait)
	conn.SetReadDeadline(deadline) //nolint:errcheck

	// A gorilla connection cannot be read again after a read error, so
	// a single reader goroutine owns ReadMessage and the poll timeout
	// lives on this side of the channel.
	msgs := make(chan wsMessage)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			kind, data, err := conn.ReadMessage()
			select {
			case msgs <- wsMessage{kind: kind, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		poll := p.PollTimeout
		if poll <= 0 || poll > remaining {
			poll = remaining
		}
		timer := time.NewTimer(poll)

		select {
		case m := <-msgs:
			timer.Stop()
			if m.err != nil {
				p.handleReadError(m.err, log)
				return nil
			}
			report.Received = append(report.Received, m.data)
			p.Metrics.MessageReceived()
			p.Metrics.BytesReceived(int64(len(m.data)))
			fmt.Fprintf(stdoutOr(p.Stdout), "Received from server: %s\n", formatMessage(m.kind, m.data))

		case <-timer.C:
			p.Metrics.ReceiveTimeout()
			log.Debug("nothing received within %s", poll)

		case <-ctx.Done():
			timer.Stop()
			log.Warn("interrupted while waiting for responses")
			return ctx.Err()
		}
	}
}

func (p *WSProbe) handleReadError(err error, log *util.Logger) {
	switch {
	case perr.IsTimeout(err):
		// Wait window closed while a read was pending.
		p.Metrics.ReceiveTimeout()
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Info("server closed the connection: %v", err)
	default:
		p.Metrics.RecordError(err.Error())
		log.Warn("receive error (non-fatal): %v", err)
	}
}

// formatMessage renders binary frames as a bytes literal and text frames
// as a quoted string.
func formatMessage(kind int, data []byte) string {
	if kind == websocket.TextMessage {
		return util.QuoteText(string(data))
	}
	return util.QuoteBytes(data)
}

// closeWS sends a close frame and closes the underlying connection.
func closeWS(conn *websocket.Conn, log *util.Logger) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		log.Debug("close frame: %v", err)
	}
	conn.Close()
}
