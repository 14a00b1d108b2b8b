package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML configuration accepted by --config.  Every
// field is optional; only values that are present override defaults.
//
//	websocket:
//	  url: ws://device.local:5001
//	  wait: 2.5
//	  connect_timeout: 10s
//	tcp:
//	  host: 10.0.0.7
//	  port: 5001
//	retries: 5
//	tunnel:
//	  spec: admin@bastion:2222
//	log:
//	  verbose: 2
//	  timestamps: true
type File struct {
	Retries   int           `yaml:"retries,omitempty"`
	WebSocket WSSection     `yaml:"websocket"`
	TCP       TCPSection    `yaml:"tcp"`
	Tunnel    TunnelSection `yaml:"tunnel"`
	Log       LogSection    `yaml:"log"`
}

// WSSection holds the websocket: block.
type WSSection struct {
	URL            string            `yaml:"url"`
	Wait           *Duration         `yaml:"wait"`
	ConnectTimeout *Duration         `yaml:"connect_timeout"`
	PollTimeout    *Duration         `yaml:"poll_timeout"`
	Backoff        *Duration         `yaml:"backoff"`
	Retries        int               `yaml:"retries"`
	Origin         string            `yaml:"origin"`
	Headers        map[string]string `yaml:"headers"`
	Insecure       bool              `yaml:"insecure"`
}

// TCPSection holds the tcp: block.
type TCPSection struct {
	Host     string    `yaml:"host"`
	Port     int       `yaml:"port"`
	Timeout  *Duration `yaml:"timeout"`
	Delay    *Duration `yaml:"delay"`
	Retries  int       `yaml:"retries"`
	ReadSize int       `yaml:"read_size"`
	NoDNS    bool      `yaml:"no_dns"`
}

// TunnelSection holds the tunnel: block.
type TunnelSection struct {
	Spec          string `yaml:"spec"`
	Key           string `yaml:"key"`
	Password      bool   `yaml:"password"`
	Agent         bool   `yaml:"agent"`
	StrictHostKey bool   `yaml:"strict_hostkey"`
	KnownHosts    string `yaml:"known_hosts"`
}

// LogSection holds the log: block.
type LogSection struct {
	Verbose    int  `yaml:"verbose"`
	Quiet      bool `yaml:"quiet"`
	Trace      bool `yaml:"trace"`
	Stats      bool `yaml:"stats"`
	Timestamps bool `yaml:"timestamps"`
}

// Duration accepts either a Go duration string ("2s", "150ms") or a bare
// number of seconds (2, 2.5).
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	if sec, err := strconv.ParseFloat(node.Value, 64); err == nil {
		if sec < 0 {
			return fmt.Errorf("line %d: negative duration %q", node.Line, node.Value)
		}
		v, err := Seconds("duration", sec)
		if err != nil {
			return fmt.Errorf("line %d: duration %q out of range", node.Line, node.Value)
		}
		d.Duration = v
		return nil
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative duration %q", node.Line, node.Value)
	}
	d.Duration = v
	return nil
}

// LoadFile reads and parses a probe configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}

// ApplyWS overlays the websocket: block and shared settings onto cfg.
func (f *File) ApplyWS(cfg *WSConfig) {
	s := f.WebSocket
	if s.URL != "" {
		cfg.URL = s.URL
	}
	if s.Wait != nil {
		cfg.Wait = s.Wait.Duration
	}
	if s.ConnectTimeout != nil {
		cfg.ConnectTimeout = s.ConnectTimeout.Duration
	}
	if s.PollTimeout != nil {
		cfg.PollTimeout = s.PollTimeout.Duration
	}
	if s.Backoff != nil {
		cfg.Backoff = s.Backoff.Duration
	}
	if s.Origin != "" {
		cfg.Origin = s.Origin
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for k, v := range s.Headers {
		cfg.Headers[k] = v
	}
	if s.Insecure {
		cfg.Insecure = true
	}
	f.applyCommon(&cfg.Common, s.Retries)
}

// ApplyTCP overlays the tcp: block and shared settings onto cfg.
func (f *File) ApplyTCP(cfg *TCPConfig) {
	s := f.TCP
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port > 0 {
		cfg.Port = s.Port
	}
	if s.Timeout != nil {
		cfg.Timeout = s.Timeout.Duration
	}
	if s.Delay != nil {
		cfg.Delay = s.Delay.Duration
	}
	if s.ReadSize > 0 {
		cfg.ReadSize = s.ReadSize
	}
	if s.NoDNS {
		cfg.NoDNS = true
	}
	f.applyCommon(&cfg.Common, s.Retries)
}

// applyCommon overlays shared settings.  A per-probe retries value wins
// over the top-level one.
func (f *File) applyCommon(c *Common, sectionRetries int) {
	switch {
	case sectionRetries > 0:
		c.Retries = sectionRetries
	case f.Retries > 0:
		c.Retries = f.Retries
	}

	if f.Log.Verbose > 0 {
		c.Verbose = f.Log.Verbose
	}
	if f.Log.Quiet {
		c.Quiet = true
	}
	if f.Log.Trace {
		c.Trace = true
	}
	if f.Log.Stats {
		c.Stats = true
	}
	if f.Log.Timestamps {
		c.Timestamps = true
	}

	t := f.Tunnel
	if t.Spec != "" {
		c.Tunnel.Spec = t.Spec
	}
	if t.Key != "" {
		c.Tunnel.KeyPath = t.Key
	}
	if t.Password {
		c.Tunnel.Password = true
	}
	if t.Agent {
		c.Tunnel.Agent = true
	}
	if t.StrictHostKey {
		c.Tunnel.StrictHostKey = true
	}
	if t.KnownHosts != "" {
		c.Tunnel.KnownHosts = t.KnownHosts
	}
}
