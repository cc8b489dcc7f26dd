package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pilldrop/dispenserctl/internal/transport"
)

// DeviceConfig is the on-disk transport tuning surface. Every chunk
// size, delay and the serial ack byte started life as an empirically
// tuned constant against dispenser firmware; none of them is treated
// as a fixed protocol requirement.
type DeviceConfig struct {
	Serial    SerialConfig    `toml:"serial"`
	BLE       BLEConfig       `toml:"ble"`
	Sim       SimConfig       `toml:"sim"`
	Discovery DiscoveryConfig `toml:"discovery"`
}

// AckByte is a pointer so `ack_byte = 0` (a firmware acknowledging
// with NUL) is distinguishable from the key being absent.
type SerialConfig struct {
	BaudRate          int  `toml:"baud_rate"`
	AckByte           *int `toml:"ack_byte"`
	ChunkSize         int `toml:"chunk_size"`
	InterChunkDelayMS int `toml:"inter_chunk_delay_ms"`
	AckTimeoutMS      int `toml:"ack_timeout_ms"`
	SettleDelayMS     int `toml:"settle_delay_ms"`
	DrainDelayMS      int `toml:"drain_delay_ms"`
}

type BLEConfig struct {
	ServiceUUID        string `toml:"service_uuid"`
	CharacteristicUUID string `toml:"characteristic_uuid"`
	ConnectTimeoutMS   int    `toml:"connect_timeout_ms"`
	ChunkSize          int    `toml:"chunk_size"`
	InterChunkDelayMS  int    `toml:"inter_chunk_delay_ms"`
	SettleDelayMS      int    `toml:"settle_delay_ms"`
	DrainDelayMS       int    `toml:"drain_delay_ms"`
}

type SimConfig struct {
	ChunkSize         int `toml:"chunk_size"`
	InterChunkDelayMS int `toml:"inter_chunk_delay_ms"`
}

type DiscoveryConfig struct {
	SerialPorts  *bool `toml:"serial_ports"`
	BLE          *bool `toml:"ble"`
	ScanWindowMS int   `toml:"scan_window_ms"`
}

// LoadDeviceConfig reads and validates a device config file. A missing
// path yields the built-in defaults.
func LoadDeviceConfig(path string) (DeviceConfig, error) {
	var cfg DeviceConfig
	if path == "" {
		return cfg, nil
	}
	if err := loadToml(path, &cfg); err != nil {
		return DeviceConfig{}, err
	}
	if err := ValidateDeviceConfig(cfg); err != nil {
		return DeviceConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateDeviceConfig(cfg DeviceConfig) error {
	if v := cfg.Serial.AckByte; v != nil && (*v < 0 || *v > 0xff) {
		return fmt.Errorf("serial ack_byte must fit one byte, got %d", *v)
	}
	for name, v := range map[string]int{
		"serial chunk_size": cfg.Serial.ChunkSize,
		"ble chunk_size":    cfg.BLE.ChunkSize,
		"sim chunk_size":    cfg.Sim.ChunkSize,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial baud_rate must not be negative, got %d", cfg.Serial.BaudRate)
	}
	return nil
}

// TransportConfig converts file fields into the transport layer's
// tuning struct; zero values fall through to the built-in defaults.
func (cfg DeviceConfig) TransportConfig() transport.Config {
	var ackByte *byte
	if cfg.Serial.AckByte != nil {
		b := byte(*cfg.Serial.AckByte)
		ackByte = &b
	}
	out := transport.Config{
		Serial: transport.SerialSettings{
			BaudRate: cfg.Serial.BaudRate,
			AckByte:  ackByte,
			Profile: transport.Profile{
				ChunkSize:       cfg.Serial.ChunkSize,
				InterChunkDelay: ms(cfg.Serial.InterChunkDelayMS),
				AckTimeout:      ms(cfg.Serial.AckTimeoutMS),
				SettleDelay:     ms(cfg.Serial.SettleDelayMS),
				DrainDelay:      ms(cfg.Serial.DrainDelayMS),
				AckRequired:     true,
			},
		},
		BLE: transport.BLESettings{
			ServiceUUID:        cfg.BLE.ServiceUUID,
			CharacteristicUUID: cfg.BLE.CharacteristicUUID,
			ConnectTimeout:     ms(cfg.BLE.ConnectTimeoutMS),
			Profile: transport.Profile{
				ChunkSize:       cfg.BLE.ChunkSize,
				InterChunkDelay: ms(cfg.BLE.InterChunkDelayMS),
				SettleDelay:     ms(cfg.BLE.SettleDelayMS),
				DrainDelay:      ms(cfg.BLE.DrainDelayMS),
			},
		},
		Sim: transport.Profile{
			ChunkSize:       cfg.Sim.ChunkSize,
			InterChunkDelay: ms(cfg.Sim.InterChunkDelayMS),
		},
	}
	return out.Normalized()
}

// DiscoveryOptions converts the discovery section, defaulting to a
// full pass over serial ports and BLE.
func (cfg DeviceConfig) DiscoveryOptions() transport.DiscoveryOptions {
	opts := transport.DefaultDiscoveryOptions()
	if cfg.Discovery.SerialPorts != nil {
		opts.SerialPorts = *cfg.Discovery.SerialPorts
	}
	if cfg.Discovery.BLE != nil {
		opts.BLE = *cfg.Discovery.BLE
	}
	if cfg.Discovery.ScanWindowMS > 0 {
		opts.ScanWindow = ms(cfg.Discovery.ScanWindowMS)
	}
	return opts
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
