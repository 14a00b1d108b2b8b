// Package cmd wires up the CLI flags for the two probe binaries and
// dispatches to the probe layer.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"packetprobe/config"
	"packetprobe/internal/probe"
	"packetprobe/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X packetprobe/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// commonFlags holds the raw values of flags both binaries share.  They
// are copied onto the config only when set on the command line.
type commonFlags struct {
	configPath string
	retries    int
	verbose    int
	quiet      bool
	trace      bool
	stats      bool
	timestamps bool
	dryRun     bool

	tunnel        string
	sshKey        string
	sshPassword   bool
	sshAgent      bool
	strictHostKey bool
	knownHosts    string

	showVersion bool
	showHelp    bool
}

// register adds the shared flags to fs.
func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.retries, "retries", config.DefaultRetries, "Number of connection attempts")
	fs.BoolVar(&f.trace, "trace", false, "Hex-dump every byte on the wire (implies -vvv)")
	fs.StringVar(&f.configPath, "config", "", "YAML config file (env: PROBE_CONFIG)")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&f.tunnel, "tunnel", "T", "", "Dial through SSH jump host [user@]host[:port]")
	fs.StringVar(&f.sshKey, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&f.sshPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&f.sshAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&f.strictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&f.knownHosts, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Only print errors and received data")
	fs.BoolVar(&f.stats, "stats", false, "Print run statistics as JSON on exit")
	fs.BoolVar(&f.timestamps, "timestamps", false, "Prefix log lines with the time (default from -vv)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Validate configuration and exit")

	fs.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&f.showHelp, "help", "h", false, "Show this help")
}

// apply copies explicitly set flags onto c.
func (f *commonFlags) apply(fs *flag.FlagSet, c *config.Common) {
	if fs.Changed("retries") {
		c.Retries = f.retries
	}
	if fs.Changed("verbose") {
		c.Verbose = config.DefaultVerbose + f.verbose
	}
	if fs.Changed("quiet") {
		c.Quiet = f.quiet
	}
	if fs.Changed("trace") {
		c.Trace = f.trace
	}
	if fs.Changed("stats") {
		c.Stats = f.stats
	}
	if fs.Changed("timestamps") {
		c.Timestamps = f.timestamps
	}
	if fs.Changed("tunnel") {
		c.Tunnel.Spec = f.tunnel
	}
	if fs.Changed("ssh-key") {
		c.Tunnel.KeyPath = f.sshKey
	}
	if fs.Changed("ssh-password") {
		c.Tunnel.Password = f.sshPassword
	}
	if fs.Changed("ssh-agent") {
		c.Tunnel.Agent = f.sshAgent
	}
	if fs.Changed("strict-hostkey") {
		c.Tunnel.StrictHostKey = f.strictHostKey
	}
	if fs.Changed("known-hosts") {
		c.Tunnel.KnownHosts = f.knownHosts
	}
}

// loadFile returns the parsed --config file, falling back to
// $PROBE_CONFIG.  A nil File means no file was requested.
func (f *commonFlags) loadFile() (*config.File, error) {
	path := f.configPath
	if path == "" {
		path = os.Getenv("PROBE_CONFIG")
	}
	if path == "" {
		return nil, nil
	}
	return config.LoadFile(path)
}

// ── helpers ──────────────────────────────────────────────────────────

// newFlagSet returns a ContinueOnError flag set that reports parse
// errors on stderr.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	return fs
}

// newLogger maps the output flags to a logger writing to stderr.
func newLogger(c *config.Common, stderr io.Writer) *util.Logger {
	level := c.Verbose
	if c.Trace && level < int(util.LogTrace) {
		level = int(util.LogTrace)
	}
	if c.Quiet {
		level = int(util.LogQuiet)
	}
	logger := util.NewLogger(level)
	logger.SetOutput(stderr)
	if c.Timestamps {
		logger.SetTimestamps(true)
	}
	return logger
}

// resolveTunnel fills the tunnel fields from its spec.  A spec without
// a user falls back to $USER.
func resolveTunnel(c *config.Common) error {
	return c.Tunnel.Resolve(os.Getenv("USER"))
}

// run executes p and, with --stats, prints the metrics snapshot.
func run(ctx context.Context, p probe.Probe, c *config.Common, stderr io.Writer) error {
	report, err := p.Run(ctx)
	if c.Stats && report != nil {
		fmt.Fprintln(stderr, report.Metrics.JSON())
	}
	return err
}

func printVersion(name string, w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", name, version)
}
