// Package probe is the orchestration layer.  It composes a transport,
// a retry policy and a metrics collector into a complete one-shot
// probe, and provides builders that assemble a probe from a config.
//
// Architecture layers (bottom → top):
//
//	transport  →  retry  →  probe  →  cmd (CLI)
package probe

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"packetprobe/internal/metrics"
)

// Probe is a single diagnostic run: connect with retries, send the
// probe payload once, collect whatever the server answers, close.
type Probe interface {
	Run(ctx context.Context) (*Report, error)
}

// Report summarises one probe run.  It is returned even when Run fails
// so callers can still print statistics.
type Report struct {
	RunID     string
	Target    string
	Attempts  int
	Connected bool
	Sent      int
	Received  [][]byte
	Metrics   *metrics.Collector
}

func newReport(target string, m *metrics.Collector) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Target:  target,
		Metrics: m,
	}
}

// ShortID returns the first block of the run ID for log lines.
func (r *Report) ShortID() string {
	if len(r.RunID) < 8 {
		return r.RunID
	}
	return r.RunID[:8]
}

func stdoutOr(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}
