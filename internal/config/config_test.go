package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pilldrop/dispenserctl/internal/schedule"
	"github.com/pilldrop/dispenserctl/internal/testutil/testlog"
	"github.com/pilldrop/dispenserctl/internal/transport"
)

func TestLoadDeviceConfigDefaultsOnEmptyPath(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadDeviceConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tc := cfg.TransportConfig()
	if tc.Serial.BaudRate != transport.DefaultBaudRate {
		t.Fatalf("baud %d", tc.Serial.BaudRate)
	}
	if tc.Serial.AckByte == nil || *tc.Serial.AckByte != transport.DefaultAckByte {
		t.Fatalf("ack byte %v", tc.Serial.AckByte)
	}
	if tc.BLE.Profile.ChunkSize != 20 || tc.BLE.Profile.InterChunkDelay != 200*time.Millisecond {
		t.Fatalf("ble profile %+v", tc.BLE.Profile)
	}
}

func TestLoadDeviceConfigOverrides(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "device.toml")
	body := `
[serial]
baud_rate = 115200
ack_byte = 85
chunk_size = 128
inter_chunk_delay_ms = 10

[ble]
connect_timeout_ms = 3000

[sim]
chunk_size = 40

[discovery]
ble = false
scan_window_ms = 2500
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadDeviceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tc := cfg.TransportConfig()
	if tc.Serial.BaudRate != 115200 || *tc.Serial.AckByte != 0x55 {
		t.Fatalf("serial settings %+v", tc.Serial)
	}
	if tc.Serial.Profile.ChunkSize != 128 || tc.Serial.Profile.InterChunkDelay != 10*time.Millisecond {
		t.Fatalf("serial profile %+v", tc.Serial.Profile)
	}
	// Unset fields fall back through Normalized.
	if tc.Serial.Profile.AckTimeout != 2*time.Second {
		t.Fatalf("ack timeout %v", tc.Serial.Profile.AckTimeout)
	}
	if tc.BLE.ConnectTimeout != 3*time.Second {
		t.Fatalf("ble connect timeout %v", tc.BLE.ConnectTimeout)
	}
	if tc.BLE.CharacteristicUUID != transport.DefaultCharacteristicUUID {
		t.Fatalf("ble characteristic %q", tc.BLE.CharacteristicUUID)
	}
	if tc.Sim.ChunkSize != 40 {
		t.Fatalf("sim profile %+v", tc.Sim)
	}

	opts := cfg.DiscoveryOptions()
	if !opts.SerialPorts || opts.BLE {
		t.Fatalf("discovery options %+v", opts)
	}
	if opts.ScanWindow != 2500*time.Millisecond {
		t.Fatalf("scan window %v", opts.ScanWindow)
	}
}

func intp(v int) *int { return &v }

func TestValidateDeviceConfig(t *testing.T) {
	testlog.Start(t)
	bad := []DeviceConfig{
		{Serial: SerialConfig{AckByte: intp(256)}},
		{Serial: SerialConfig{AckByte: intp(-1)}},
		{Serial: SerialConfig{ChunkSize: -5}},
		{BLE: BLEConfig{ChunkSize: -1}},
		{Serial: SerialConfig{BaudRate: -9600}},
	}
	for i, cfg := range bad {
		if err := ValidateDeviceConfig(cfg); err == nil {
			t.Fatalf("case %d accepted", i)
		}
	}
	if err := ValidateDeviceConfig(DeviceConfig{}); err != nil {
		t.Fatalf("zero config rejected: %v", err)
	}
	if err := ValidateDeviceConfig(DeviceConfig{Serial: SerialConfig{AckByte: intp(0)}}); err != nil {
		t.Fatalf("NUL ack byte rejected: %v", err)
	}
}

func TestAckByteZeroIsPreserved(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "device.toml")
	if err := os.WriteFile(path, []byte("[serial]\nack_byte = 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadDeviceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tc := cfg.TransportConfig()
	if tc.Serial.AckByte == nil || *tc.Serial.AckByte != 0x00 {
		t.Fatalf("NUL ack byte lost: %v", tc.Serial.AckByte)
	}
}

func TestLoadDeviceConfigRejectsMalformedFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("serial = {"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadDeviceConfig(path); err == nil {
		t.Fatalf("malformed toml accepted")
	}
	if _, err := LoadDeviceConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()

	devicePath := filepath.Join(dir, "device.toml")
	if err := WriteTemplate(devicePath, "device", false); err != nil {
		t.Fatalf("write device template: %v", err)
	}
	if err := WriteTemplate(devicePath, "device", false); err == nil {
		t.Fatalf("overwrite without force accepted")
	}
	if err := WriteTemplate(devicePath, "device", true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
	cfg, err := LoadDeviceConfig(devicePath)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	tc := cfg.TransportConfig()
	if tc.Serial.Profile.ChunkSize != 64 || tc.BLE.Profile.ChunkSize != 20 {
		t.Fatalf("template profiles %+v %+v", tc.Serial.Profile, tc.BLE.Profile)
	}

	schedulePath := filepath.Join(dir, "schedule.json")
	if err := WriteTemplate(schedulePath, "schedule", false); err != nil {
		t.Fatalf("write schedule template: %v", err)
	}
	sched, err := schedule.LoadFile(schedulePath)
	if err != nil {
		t.Fatalf("template schedule invalid: %v", err)
	}
	if len(sched.Records) != 2 {
		t.Fatalf("template has %d records", len(sched.Records))
	}

	if _, err := Template("unknown"); err == nil {
		t.Fatalf("unknown template kind accepted")
	}
}
