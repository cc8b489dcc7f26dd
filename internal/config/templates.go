package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "device":
		return deviceTemplate, nil
	case "schedule":
		return scheduleTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const deviceTemplate = `# Transport tuning. Every value here was tuned against dispenser
# firmware; confirm against the receiver build before changing.

[serial]
baud_rate = 9600
ack_byte = 6
chunk_size = 64
inter_chunk_delay_ms = 50
ack_timeout_ms = 2000
settle_delay_ms = 2000
drain_delay_ms = 100

[ble]
service_uuid = "12345678-1234-1234-1234-123456789abc"
characteristic_uuid = "87654321-4321-4321-4321-cba987654321"
connect_timeout_ms = 10000
chunk_size = 20
inter_chunk_delay_ms = 200
settle_delay_ms = 1000
drain_delay_ms = 500

[discovery]
serial_ports = true
ble = true
scan_window_ms = 10000
`

const scheduleTemplate = `[
  {
    "tube": "tube1",
    "type": "Aspirin",
    "amount": 50,
    "time_to_take": [
      { "time": "09:00", "dosage": "1 tablet" },
      { "time": "21:00", "dosage": "1 tablet" }
    ]
  },
  {
    "tube": "tube2",
    "type": "Paracetamol",
    "amount": 120,
    "time_to_take": [
      { "time": "08:00", "dosage": "1 tablet" }
    ]
  }
]
`
