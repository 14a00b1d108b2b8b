package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"packetprobe/config"
	perr "packetprobe/internal/errors"
	"packetprobe/internal/metrics"
	"packetprobe/internal/retry"
	"packetprobe/internal/transport"
	"packetprobe/util"
)

// TCPProbe dials a raw TCP endpoint, writes the probe payload and makes
// one best-effort read for a reply.
type TCPProbe struct {
	Address  string // host:port
	Timeout  time.Duration
	ReadSize int
	Payload  []byte

	Dialer  transport.Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

// Run performs the probe.  Any attempt that delivers the payload makes
// the run a success, whether or not the server replies.
func (p *TCPProbe) Run(ctx context.Context) (*Report, error) {
	defer p.Dialer.Close()

	report := newReport(p.Address, p.Metrics)
	log := p.Logger.With("run", report.ShortID())

	payload := p.Payload
	if len(payload) == 0 {
		payload = config.PayloadBytes()
	}

	bo := *p.Backoff
	bo.OnRetry = func(attempt int, err error, wait time.Duration) {
		if wait > 0 {
			log.Verbose("next attempt in %s", wait)
		}
	}

	err := bo.Do(ctx, func(attempt int) error {
		report.Attempts = attempt
		p.Metrics.AttemptStarted()
		log.Info("attempt %d/%d: connect to %s (timeout=%s)",
			attempt, p.Backoff.MaxAttempts, p.Address, p.Timeout)

		if err := p.attempt(ctx, payload, report, log); err != nil {
			p.Metrics.AttemptFailed()
			p.Metrics.RecordError(err.Error())
			log.Warn("connection failed: %v", err)
			if ctx.Err() != nil || !perr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
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
		log.Error("all attempts failed")
		return report, fmt.Errorf("%w: %w", perr.ErrAllAttemptsFailed, err)
	}

	log.Info("sent %s successfully", util.QuoteBytes(payload))
	return report, nil
}

// attempt runs one connect-send-read cycle.  Only connect and write
// failures are returned; the reply read is best effort.
func (p *TCPProbe) attempt(ctx context.Context, payload []byte, report *Report, log *util.Logger) error {
	dctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.Dialer.Dial(dctx, "tcp", p.Address)
	if err != nil {
		return perr.Wrap("dial", p.Address, err)
	}
	defer conn.Close()

	p.Metrics.Connected(time.Since(start))
	report.Connected = true
	log.Verbose("connected to %s", conn.RemoteAddr())

	conn.SetWriteDeadline(time.Now().Add(p.Timeout)) //nolint:errcheck
	if _, err := conn.Write(payload); err != nil {
		report.Connected = false
		return perr.Wrap("write", p.Address, err)
	}
	report.Sent = len(payload)
	p.Metrics.BytesSent(int64(len(payload)))

	size := p.ReadSize
	if size <= 0 {
		size = config.DefaultReadSize
	}
	buf := make([]byte, size)

	conn.SetReadDeadline(time.Now().Add(p.Timeout)) //nolint:errcheck
	n, err := conn.Read(buf)
	if n > 0 {
		data := append([]byte(nil), buf[:n]...)
		report.Received = append(report.Received, data)
		p.Metrics.MessageReceived()
		p.Metrics.BytesReceived(int64(n))
		fmt.Fprintf(stdoutOr(p.Stdout), "Received reply: %s\n", util.QuoteBytes(data))
	}

	switch {
	case err == nil:
	case perr.IsTimeout(err):
		p.Metrics.ReceiveTimeout()
		log.Debug("no reply within %s", p.Timeout)
	case errors.Is(err, io.EOF):
		log.Debug("server closed the connection without replying")
	default:
		p.Metrics.RecordError(err.Error())
		log.Warn("read error (non-fatal): %v", err)
	}
	return nil
}
