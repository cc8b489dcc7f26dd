package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultOperatorConfigPath = "cmd/dispenserctl/dispenserctl.toml"

// operatorConfig binds friendly device names to connection addresses
// so `send -device "Bench Dispenser"` works without remembering ports
// or MACs.
type operatorConfig struct {
	DefaultDevice    string
	DeviceConfigPath string
	Devices          []deviceEntry
}

type deviceEntry struct {
	Name    string
	Address string
}

type fileConfig struct {
	DefaultDevice    string            `toml:"default_device"`
	DeviceConfigPath string            `toml:"device_config"`
	Devices          []fileDeviceEntry `toml:"devices"`
}

type fileDeviceEntry struct {
	Name    string `toml:"name"`
	Address string `toml:"address"`
}

func loadOperatorConfig(path string) (operatorConfig, error) {
	cfg := operatorConfig{}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if os.IsNotExist(err) && path == defaultOperatorConfigPath {
			return cfg, nil
		}
		return operatorConfig{}, fmt.Errorf("load operator config: %w", err)
	}

	if meta.IsDefined("default_device") {
		cfg.DefaultDevice = strings.TrimSpace(raw.DefaultDevice)
	}
	if meta.IsDefined("device_config") {
		cfg.DeviceConfigPath = strings.TrimSpace(raw.DeviceConfigPath)
	}
	for i, entry := range raw.Devices {
		name := strings.TrimSpace(entry.Name)
		addr := strings.TrimSpace(entry.Address)
		if name == "" || addr == "" {
			return operatorConfig{}, fmt.Errorf("devices[%d]: name and address are required", i)
		}
		cfg.Devices = append(cfg.Devices, deviceEntry{Name: name, Address: addr})
	}
	return cfg, nil
}

// resolveAddress maps a -device argument to a connection address: an
// exact address-book name first, then a raw scheme-prefixed address.
func (cfg operatorConfig) resolveAddress(device string) (string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		device = cfg.DefaultDevice
	}
	if device == "" {
		return "", fmt.Errorf("no device given and no default_device configured")
	}
	for _, entry := range cfg.Devices {
		if entry.Name == device {
			return entry.Address, nil
		}
	}
	if strings.Contains(device, ":") {
		return device, nil
	}
	return "", fmt.Errorf("unknown device %q (not in address book, not an address)", device)
}
