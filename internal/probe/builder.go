package probe

import (
	"crypto/tls"
	"net/http"
	"time"

	"packetprobe/config"
	"packetprobe/internal/metrics"
	"packetprobe/internal/retry"
	"packetprobe/internal/transport"
	"packetprobe/tunnel"
	"packetprobe/util"
)

// BuildWS assembles a WSProbe from a validated config.
func BuildWS(cfg *config.WSConfig, logger *util.Logger) (*WSProbe, error) {
	header := http.Header{}
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}

	var tlsCfg *tls.Config
	if cfg.Insecure {
		tlsCfg = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &WSProbe{
		URL:            cfg.URL,
		Header:         header,
		TLSConfig:      tlsCfg,
		Wait:           cfg.Wait,
		ConnectTimeout: cfg.ConnectTimeout,
		PollTimeout:    cfg.PollTimeout,
		Payload:        config.PayloadBytes(),
		Dialer:         buildDialer(&cfg.Common, cfg.ConnectTimeout, logger),
		Backoff:        retry.Linear(cfg.Backoff, cfg.Retries),
		Logger:         logger,
		Metrics:        metrics.New(),
	}, nil
}

// BuildTCP assembles a TCPProbe from a validated config.
func BuildTCP(cfg *config.TCPConfig, logger *util.Logger) (*TCPProbe, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	return &TCPProbe{
		Address:  address,
		Timeout:  cfg.Timeout,
		ReadSize: cfg.ReadSize,
		Payload:  config.PayloadBytes(),
		Dialer:   buildDialer(&cfg.Common, cfg.Timeout, logger),
		Backoff:  retry.Constant(cfg.Delay, cfg.Retries),
		Logger:   logger,
		Metrics:  metrics.New(),
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(c *config.Common, timeout time.Duration, logger *util.Logger) transport.Dialer {
	var d transport.Dialer = &transport.TCPDialer{Timeout: timeout}

	if c.Tunnel.Enabled() {
		d = transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          c.Tunnel.User,
			Host:          c.Tunnel.Host,
			Port:          c.Tunnel.Port,
			KeyPath:       c.Tunnel.KeyPath,
			Password:      c.Tunnel.Secret,
			PromptPass:    c.Tunnel.Password,
			UseAgent:      c.Tunnel.Agent,
			StrictHostKey: c.Tunnel.StrictHostKey,
			KnownHosts:    c.Tunnel.KnownHosts,
			ConnTimeout:   config.DefaultSSHTimeout,
		}, logger)
	}

	if c.Trace {
		d = &transport.TraceDialer{Dialer: d, Logger: logger}
	}
	return d
}
