package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pilldrop/dispenserctl/internal/testutil/testlog"
)

func writeOperatorConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dispenserctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadOperatorConfig(t *testing.T) {
	testlog.Start(t)
	path := writeOperatorConfig(t, `
default_device = "Bench Dispenser"
device_config = "device.toml"

[[devices]]
name = "Bench Dispenser"
address = "serial:/dev/ttyUSB0"

[[devices]]
name = "Ward 3"
address = "ble:AA:BB:CC:DD:EE:FF"
`)
	cfg, err := loadOperatorConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultDevice != "Bench Dispenser" {
		t.Fatalf("default device %q", cfg.DefaultDevice)
	}
	if cfg.DeviceConfigPath != "device.toml" {
		t.Fatalf("device config path %q", cfg.DeviceConfigPath)
	}
	if len(cfg.Devices) != 2 || cfg.Devices[1].Address != "ble:AA:BB:CC:DD:EE:FF" {
		t.Fatalf("devices %+v", cfg.Devices)
	}
}

func TestLoadOperatorConfigRejectsIncompleteEntry(t *testing.T) {
	testlog.Start(t)
	path := writeOperatorConfig(t, `
[[devices]]
name = "Nameless"
address = ""
`)
	if _, err := loadOperatorConfig(path); err == nil {
		t.Fatalf("entry without address accepted")
	}
}

func TestLoadOperatorConfigMissingDefaultPath(t *testing.T) {
	testlog.Start(t)
	// The default path is optional; an explicit path is not.
	cfg, err := loadOperatorConfig(defaultOperatorConfigPath)
	if err != nil {
		t.Fatalf("missing default config: %v", err)
	}
	if len(cfg.Devices) != 0 {
		t.Fatalf("devices %+v", cfg.Devices)
	}
	if _, err := loadOperatorConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("missing explicit config accepted")
	}
}

func TestResolveAddress(t *testing.T) {
	testlog.Start(t)
	cfg := operatorConfig{
		DefaultDevice: "Bench Dispenser",
		Devices: []deviceEntry{
			{Name: "Bench Dispenser", Address: "serial:/dev/ttyUSB0"},
			{Name: "Ward 3", Address: "ble:AA:BB:CC:DD:EE:FF"},
		},
	}

	addr, err := cfg.resolveAddress("Ward 3")
	if err != nil || addr != "ble:AA:BB:CC:DD:EE:FF" {
		t.Fatalf("addr %q err %v", addr, err)
	}
	addr, err = cfg.resolveAddress("")
	if err != nil || addr != "serial:/dev/ttyUSB0" {
		t.Fatalf("default addr %q err %v", addr, err)
	}
	addr, err = cfg.resolveAddress("sim:dispenser")
	if err != nil || addr != "sim:dispenser" {
		t.Fatalf("raw addr %q err %v", addr, err)
	}
	if _, err := cfg.resolveAddress("No Such Device"); err == nil {
		t.Fatalf("unknown name accepted")
	}
	if _, err := (operatorConfig{}).resolveAddress(""); err == nil {
		t.Fatalf("empty device with no default accepted")
	}
}
