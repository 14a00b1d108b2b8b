package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"packetprobe/config"
	perr "packetprobe/internal/errors"
	"packetprobe/internal/probe"
)

// ExecuteWS parses args and runs the WebSocket probe.
func ExecuteWS(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("wsprobe", stderr)

	var (
		url            string
		wait           float64
		connectTimeout float64
		pollTimeout    float64
		backoff        float64
		origin         string
		headers        []string
		insecure       bool
		common         commonFlags
	)

	// ── connection ───────────────────────────────────────────────
	fs.StringVar(&url, "url", config.DefaultURL, "WebSocket URL")
	fs.Float64Var(&wait, "wait", config.DefaultWait.Seconds(), "Seconds to wait for server responses")
	fs.Float64Var(&connectTimeout, "connect-timeout", config.DefaultConnectTimeout.Seconds(), "Connection/handshake timeout in seconds")
	fs.Float64Var(&pollTimeout, "poll-timeout", config.DefaultPollTimeout.Seconds(), "Per-receive timeout in seconds")
	fs.Float64Var(&backoff, "backoff", config.DefaultBackoffUnit.Seconds(), "Linear backoff unit in seconds")

	// ── handshake ────────────────────────────────────────────────
	fs.StringVar(&origin, "origin", "", "Origin header for the upgrade request")
	fs.StringArrayVarP(&headers, "header", "H", nil, `Extra request header "Name: value" (repeatable)`)
	fs.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification for wss://")

	common.register(fs)
	fs.Usage = func() { printWSUsage(fs, stderr) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if common.showHelp {
		printWSUsage(fs, stdout)
		return nil
	}
	if common.showVersion {
		printVersion("wsprobe", stdout)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --url)", fs.Arg(0))
	}

	// ── layer config: defaults < file < env < flags ──────────────
	cfg := config.DefaultWS()
	file, err := common.loadFile()
	if err != nil {
		return err
	}
	if file != nil {
		file.ApplyWS(cfg)
	}
	config.LoadWSFromEnv(cfg)

	if fs.Changed("url") {
		cfg.URL = url
	}
	if fs.Changed("wait") {
		if cfg.Wait, err = config.Seconds("wait", wait); err != nil {
			return err
		}
	}
	if fs.Changed("connect-timeout") {
		if cfg.ConnectTimeout, err = config.Seconds("connect-timeout", connectTimeout); err != nil {
			return err
		}
	}
	if fs.Changed("poll-timeout") {
		if cfg.PollTimeout, err = config.Seconds("poll-timeout", pollTimeout); err != nil {
			return err
		}
	}
	if fs.Changed("backoff") {
		if cfg.Backoff, err = config.Seconds("backoff", backoff); err != nil {
			return err
		}
	}
	if fs.Changed("origin") {
		cfg.Origin = origin
	}
	if fs.Changed("insecure") {
		cfg.Insecure = insecure
	}
	for _, h := range headers {
		name, value, err := parseHeader(h)
		if err != nil {
			return err
		}
		cfg.Headers[name] = value
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
		fmt.Fprintf(stdout, "url=%s wait=%s connect-timeout=%s retries=%d\n",
			cfg.URL, cfg.Wait, cfg.ConnectTimeout, cfg.Retries)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := newLogger(&cfg.Common, stderr)
	p, err := probe.BuildWS(cfg, logger)
	if err != nil {
		return err
	}
	p.Stdout = stdout
	return run(ctx, p, &cfg.Common, stderr)
}

// parseHeader splits "Name: value".
func parseHeader(h string) (string, string, error) {
	name, value, ok := strings.Cut(h, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", &perr.ConfigError{
			Field:   "header",
			Value:   h,
			Message: "expected Name: value",
			Hint:    `use -H "Authorization: Bearer <token>"`,
		}
	}
	return name, strings.TrimSpace(value), nil
}

func printWSUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `wsprobe v%s

Connect to a WebSocket server, send one binary frame containing 0x47 and
print whatever the server answers within the wait window.

Usage:
  wsprobe [options]

Options:
%s
Exit status:
  0  payload sent
  1  usage or configuration error
  2  all connection attempts failed

Examples:
  wsprobe                                      Probe ws://localhost:5001
  wsprobe --url ws://device:5001 --wait 5      Listen longer for replies
  wsprobe --url wss://device/ws --insecure     Self-signed TLS
  wsprobe -T admin@bastion --url ws://10.0.0.7:5001
`, version, fs.FlagUsages())
}
