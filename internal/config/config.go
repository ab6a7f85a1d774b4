// Package config handles YAML configuration parsing.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"hostloop/internal/stack"

	"gopkg.in/yaml.v3"
)

// Modes and kinds accepted in the configuration.
const (
	ModeCooperative = "cooperative"
	ModeExternal    = "external"

	SchedulingBusy  = "busy"
	SchedulingPaced = "paced"

	AdapterNone   = "none"
	AdapterPacket = "packet"
	AdapterReplay = "replay"

	InputEthernet = "ethernet"
	InputIP       = "ip"
)

// Config is the root configuration structure.
type Config struct {
	Interface  InterfaceConfig  `yaml:"interface"`
	Loopback   LoopbackConfig   `yaml:"loopback"`
	Adapter    AdapterConfig    `yaml:"adapter"`
	Loop       LoopConfig       `yaml:"loop"`
	Features   stack.Features   `yaml:"features"`
	Diagnostic DiagnosticConfig `yaml:"diagnostic"`
}

// InterfaceConfig is the primary interface.
type InterfaceConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Netmask string `yaml:"netmask"`
	Gateway string `yaml:"gateway"`
	Input   string `yaml:"input"` // "ethernet" or "ip"
}

// LoopbackConfig controls the optional loopback interface.
type LoopbackConfig struct {
	Enabled bool `yaml:"enabled"`
	Depth   int  `yaml:"depth"`
}

// AdapterConfig selects the link adapter behind the primary interface.
type AdapterConfig struct {
	Kind    string `yaml:"kind"`
	Device  string `yaml:"device"`
	Capture string `yaml:"capture"`
	Replay  string `yaml:"replay"` // "once" or "loop"
}

// LoopConfig controls scheduling of the host loop.
type LoopConfig struct {
	Mode          string        `yaml:"mode"`
	Scheduling    string        `yaml:"scheduling"`
	Rate          int           `yaml:"rate"` // iterations per second when paced
	MaxIterations int           `yaml:"max_iterations"`
	ClockWrap     int64         `yaml:"clock_wrap"` // ms, 0 = 2^32
	TickInterval  time.Duration `yaml:"tick_interval"`
}

// DiagnosticConfig is the one-shot datagram sent after bring-up.
type DiagnosticConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Destination string `yaml:"destination"`
	Size        int    `yaml:"size"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Interface: InterfaceConfig{
			Name:    "en0",
			Address: "192.168.1.200",
			Netmask: "255.255.255.0",
			Gateway: "192.168.1.1",
			Input:   InputEthernet,
		},
		Loopback: LoopbackConfig{Enabled: true, Depth: 64},
		Adapter:  AdapterConfig{Kind: AdapterNone, Replay: "once"},
		Loop: LoopConfig{
			Mode:         ModeCooperative,
			Scheduling:   SchedulingBusy,
			TickInterval: 10 * time.Millisecond,
		},
		Features: stack.AllFeatures(),
		Diagnostic: DiagnosticConfig{
			Enabled:     true,
			Destination: "232.0.0.0:20000",
			Size:        1024,
		},
	}
}

// LoadConfig reads a YAML configuration file on top of Default. A relative
// capture path is resolved against the directory of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Adapter.Capture != "" && !filepath.IsAbs(cfg.Adapter.Capture) {
		cfg.Adapter.Capture = filepath.Join(filepath.Dir(path), cfg.Adapter.Capture)
	}
	return cfg, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	for _, f := range []struct{ field, value string }{
		{"interface.address", c.Interface.Address},
		{"interface.netmask", c.Interface.Netmask},
		{"interface.gateway", c.Interface.Gateway},
	} {
		if a, err := netip.ParseAddr(f.value); err != nil || !a.Is4() {
			errs = append(errs, fmt.Errorf("%s: %q is not an IPv4 address", f.field, f.value))
		}
	}
	if c.Interface.Input != InputEthernet && c.Interface.Input != InputIP {
		errs = append(errs, fmt.Errorf("interface.input: must be %q or %q, got %q", InputEthernet, InputIP, c.Interface.Input))
	}

	switch c.Adapter.Kind {
	case AdapterNone:
	case AdapterPacket:
		if c.Adapter.Device == "" {
			errs = append(errs, errors.New("adapter.device: required for the packet adapter"))
		}
	case AdapterReplay:
		if c.Adapter.Capture == "" {
			errs = append(errs, errors.New("adapter.capture: required for the replay adapter"))
		}
		if c.Adapter.Replay != "once" && c.Adapter.Replay != "loop" {
			errs = append(errs, fmt.Errorf("adapter.replay: must be \"once\" or \"loop\", got %q", c.Adapter.Replay))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.kind: unknown adapter %q", c.Adapter.Kind))
	}

	if c.Loop.Mode != ModeCooperative && c.Loop.Mode != ModeExternal {
		errs = append(errs, fmt.Errorf("loop.mode: must be %q or %q, got %q", ModeCooperative, ModeExternal, c.Loop.Mode))
	}
	switch c.Loop.Scheduling {
	case SchedulingBusy:
	case SchedulingPaced:
		if c.Loop.Rate <= 0 {
			errs = append(errs, errors.New("loop.rate: must be > 0 when scheduling is paced"))
		}
	default:
		errs = append(errs, fmt.Errorf("loop.scheduling: must be %q or %q, got %q", SchedulingBusy, SchedulingPaced, c.Loop.Scheduling))
	}
	if c.Loop.MaxIterations < 0 {
		errs = append(errs, errors.New("loop.max_iterations: must be >= 0"))
	}
	if c.Loop.ClockWrap < 0 {
		errs = append(errs, errors.New("loop.clock_wrap: must be >= 0"))
	}

	if c.Diagnostic.Enabled {
		if _, err := netip.ParseAddrPort(c.Diagnostic.Destination); err != nil {
			errs = append(errs, fmt.Errorf("diagnostic.destination: %w", err))
		}
		if c.Diagnostic.Size < 0 {
			errs = append(errs, errors.New("diagnostic.size: must be >= 0"))
		}
	}

	return errors.Join(errs...)
}

// SendDiagnostic reports whether the multicast diagnostic datagram goes out
// after bring-up. It needs both UDP and group membership (IGMP).
func (c *Config) SendDiagnostic() bool {
	return c.Diagnostic.Enabled && c.Features.UDP && c.Features.IGMP
}

// Addresses returns the parsed primary interface addresses. Call Validate first.
func (c *Config) Addresses() (addr, netmask, gateway netip.Addr) {
	addr, _ = netip.ParseAddr(c.Interface.Address)
	netmask, _ = netip.ParseAddr(c.Interface.Netmask)
	gateway, _ = netip.ParseAddr(c.Interface.Gateway)
	return addr, netmask, gateway
}
