package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Loop.Mode != ModeCooperative {
		t.Errorf("expected cooperative mode by default, got %q", cfg.Loop.Mode)
	}
	if cfg.Loop.Scheduling != SchedulingBusy {
		t.Errorf("expected busy scheduling by default, got %q", cfg.Loop.Scheduling)
	}
	if !cfg.Loopback.Enabled {
		t.Error("expected loopback enabled by default")
	}
}

func TestLoadConfig_Interface(t *testing.T) {
	content := `
interface:
  address: 10.0.0.2
  netmask: 255.255.255.0
  gateway: 10.0.0.1
  input: ip
loopback:
  enabled: false
`
	cfg := loadConfigFromString(t, content)

	if cfg.Interface.Address != "10.0.0.2" {
		t.Errorf("expected address 10.0.0.2, got %q", cfg.Interface.Address)
	}
	if cfg.Interface.Input != InputIP {
		t.Errorf("expected input ip, got %q", cfg.Interface.Input)
	}
	if cfg.Loopback.Enabled {
		t.Error("expected loopback disabled")
	}
	// untouched sections keep their defaults
	if cfg.Interface.Name != "en0" {
		t.Errorf("expected default name en0, got %q", cfg.Interface.Name)
	}
	if !cfg.Features.TCP {
		t.Error("expected default features to survive a partial file")
	}

	addr, mask, gw := cfg.Addresses()
	if addr.String() != "10.0.0.2" || mask.String() != "255.255.255.0" || gw.String() != "10.0.0.1" {
		t.Errorf("Addresses() = %v %v %v", addr, mask, gw)
	}
}

func TestLoadConfig_LoopAndFeatures(t *testing.T) {
	content := `
loop:
  mode: external
  scheduling: paced
  rate: 1000
  max_iterations: 50
  clock_wrap: 60000
  tick_interval: 25ms
features:
  tcp: true
  arp: true
  dhcp: false
  igmp: false
`
	cfg := loadConfigFromString(t, content)

	if cfg.Loop.Mode != ModeExternal {
		t.Errorf("expected external mode, got %q", cfg.Loop.Mode)
	}
	if cfg.Loop.Rate != 1000 || cfg.Loop.MaxIterations != 50 || cfg.Loop.ClockWrap != 60000 {
		t.Errorf("unexpected loop config %+v", cfg.Loop)
	}
	if cfg.Loop.TickInterval != 25*time.Millisecond {
		t.Errorf("expected tick interval 25ms, got %v", cfg.Loop.TickInterval)
	}
	if cfg.Features.DHCP || cfg.Features.IGMP {
		t.Error("expected dhcp and igmp disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadConfig_RelativeCapture(t *testing.T) {
	content := `
adapter:
  kind: replay
  capture: frames.jsonl
`
	tmpFile := createTempFile(t, content)
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(tmpFile), "frames.jsonl")
	if cfg.Adapter.Capture != want {
		t.Errorf("expected capture %q, got %q", want, cfg.Adapter.Capture)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Interface.Address = "fe80::1"
	cfg.Interface.Input = "ppp"
	cfg.Adapter.Kind = AdapterPacket
	cfg.Loop.Mode = "threaded"
	cfg.Loop.Scheduling = SchedulingPaced
	cfg.Diagnostic.Destination = "nowhere"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"interface.address",
		"interface.input",
		"adapter.device",
		"loop.mode",
		"loop.rate",
		"diagnostic.destination",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error mentioning %s, got: %v", want, err)
		}
	}
}

func TestValidate_ErrorOrderIsStable(t *testing.T) {
	cfg := Default()
	cfg.Interface.Address = "x"
	cfg.Interface.Netmask = "y"
	cfg.Interface.Gateway = "z"

	first := cfg.Validate().Error()
	for i := 0; i < 20; i++ {
		if got := cfg.Validate().Error(); got != first {
			t.Fatalf("error text changed between runs:\n%s\n---\n%s", first, got)
		}
	}

	addr := strings.Index(first, "interface.address")
	mask := strings.Index(first, "interface.netmask")
	gw := strings.Index(first, "interface.gateway")
	if !(addr < mask && mask < gw) {
		t.Errorf("expected address, netmask, gateway order, got: %s", first)
	}
}

func TestSendDiagnostic(t *testing.T) {
	cfg := Default()
	if !cfg.SendDiagnostic() {
		t.Error("expected the default config to send the diagnostic")
	}

	cfg.Features.IGMP = false
	if cfg.SendDiagnostic() {
		t.Error("diagnostic must not be sent without IGMP")
	}

	cfg = Default()
	cfg.Features.UDP = false
	if cfg.SendDiagnostic() {
		t.Error("diagnostic must not be sent without UDP")
	}

	cfg = Default()
	cfg.Diagnostic.Enabled = false
	if cfg.SendDiagnostic() {
		t.Error("diagnostic sent while disabled")
	}
}

func TestValidate_UnknownAdapter(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Kind = "pcap"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "adapter.kind") {
		t.Errorf("expected adapter.kind error, got %v", err)
	}
}

func TestValidate_ReplayNeedsCapture(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Kind = AdapterReplay
	cfg.Adapter.Replay = "forever"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !strings.Contains(err.Error(), "adapter.capture") || !strings.Contains(err.Error(), "adapter.replay") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	content := `
interface:
  address: "10.0.0.2
  netmask: [[[invalid
`
	tmpFile := createTempFile(t, content)
	defer os.Remove(tmpFile)

	_, err := LoadConfig(tmpFile)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tmpFile := createTempFile(t, "")
	defer os.Remove(tmpFile)

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Interface.Address != Default().Interface.Address {
		t.Errorf("expected default address, got %q", cfg.Interface.Address)
	}
}

// Helper functions

func loadConfigFromString(t *testing.T, content string) *Config {
	t.Helper()
	tmpFile := createTempFile(t, content)
	defer os.Remove(tmpFile)

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return tmpFile
}
