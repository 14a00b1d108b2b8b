package cmd

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"packetprobe/config"
	"packetprobe/internal/probe"
)

// ExecuteTCP parses args and runs the raw TCP probe.
func ExecuteTCP(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("tcpprobe", stderr)

	var (
		host     string
		port     int
		timeout  float64
		delay    float64
		readSize int
		noDNS    bool
		common   commonFlags
	)

	// ── connection ───────────────────────────────────────────────
	fs.StringVar(&host, "host", config.DefaultHost, "Target host")
	fs.IntVar(&port, "port", config.DefaultPort, "Target port")
	fs.Float64Var(&timeout, "timeout", config.DefaultTCPTimeout.Seconds(), "Connect and reply timeout in seconds")
	fs.Float64Var(&delay, "delay", config.DefaultDelay.Seconds(), "Delay between attempts in seconds")
	fs.IntVar(&readSize, "read-size", config.DefaultReadSize, "Maximum reply bytes to read")
	fs.BoolVarP(&noDNS, "no-dns", "n", false, "Numeric-only, no DNS resolution")

	common.register(fs)
	fs.Usage = func() { printTCPUsage(fs, stderr) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if common.showHelp {
		printTCPUsage(fs, stdout)
		return nil
	}
	if common.showVersion {
		printVersion("tcpprobe", stdout)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --host and --port)", fs.Arg(0))
	}

	// ── layer config: defaults < file < env < flags ──────────────
	cfg := config.DefaultTCP()
	file, err := common.loadFile()
	if err != nil {
		return err
	}
	if file != nil {
		file.ApplyTCP(cfg)
	}
	config.LoadTCPFromEnv(cfg)

	if fs.Changed("host") {
		cfg.Host = host
	}
	if fs.Changed("port") {
		cfg.Port = port
	}
	if fs.Changed("timeout") {
		if cfg.Timeout, err = config.Seconds("timeout", timeout); err != nil {
			return err
		}
	}
	if fs.Changed("delay") {
		if cfg.Delay, err = config.Seconds("delay", delay); err != nil {
			return err
		}
	}
	if fs.Changed("read-size") {
		cfg.ReadSize = readSize
	}
	if fs.Changed("no-dns") {
		cfg.NoDNS = noDNS
	}
	common.apply(fs, &cfg.Common)

	// ── validate ─────────────────────────────────────────────────
	if err := resolveTunnel(&cfg.Common); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if common.dryRun {
		fmt.Fprintf(stdout, "target=%s:%d timeout=%s delay=%s retries=%d\n",
			cfg.Host, cfg.Port, cfg.Timeout, cfg.Delay, cfg.Retries)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := newLogger(&cfg.Common, stderr)
	p, err := probe.BuildTCP(cfg, logger)
	if err != nil {
		return err
	}
	p.Stdout = stdout
	return run(ctx, p, &cfg.Common, stderr)
}

func printTCPUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `tcpprobe v%s

Connect to a raw TCP server, send the single byte 0x47 and make one
best-effort read for a reply.

Usage:
  tcpprobe [options]

Options:
%s
Exit status:
  0  payload sent
  1  usage or configuration error
  2  all connection attempts failed

Examples:
  tcpprobe                                     Probe 127.0.0.1:5001
  tcpprobe --host 10.0.0.7 --retries 5         Wait for a booting device
  tcpprobe --delay 0 --timeout 0.5             Fast fail
  tcpprobe -T admin@bastion --host 10.0.0.7
`, version, fs.FlagUsages())
}
