package transport

import "time"

// Ack sentinel the serial receiver emits per accepted chunk. ASCII ACK
// by default; firmware builds differ, so it stays configurable.
const DefaultAckByte byte = 0x06

const (
	DefaultBaudRate = 9600

	// Dispenser GATT endpoints.
	DefaultServiceUUID        = "12345678-1234-1234-1234-123456789abc"
	DefaultCharacteristicUUID = "87654321-4321-4321-4321-cba987654321"

	DefaultBLEConnectTimeout = 10 * time.Second
)

// SerialSettings tunes the acknowledged byte-stream variant. AckByte
// is a pointer so a firmware that acknowledges with NUL stays
// expressible; nil means "use the default".
type SerialSettings struct {
	BaudRate int
	AckByte  *byte
	Profile  Profile
}

// BLESettings tunes the unacknowledged short-MTU variant.
type BLESettings struct {
	ServiceUUID        string
	CharacteristicUUID string
	ConnectTimeout     time.Duration
	Profile            Profile
}

// Config collects per-variant transport tuning.
type Config struct {
	Serial SerialSettings
	BLE    BLESettings
	Sim    Profile
}

func DefaultConfig() Config {
	ack := DefaultAckByte
	return Config{
		Serial: SerialSettings{
			BaudRate: DefaultBaudRate,
			AckByte:  &ack,
			Profile:  DefaultProfile(KindSerial),
		},
		BLE: BLESettings{
			ServiceUUID:        DefaultServiceUUID,
			CharacteristicUUID: DefaultCharacteristicUUID,
			ConnectTimeout:     DefaultBLEConnectTimeout,
			Profile:            DefaultProfile(KindBLE),
		},
		Sim: DefaultProfile(KindSim),
	}
}

// Normalized fills zero fields from defaults so a partially specified
// configuration stays connectable.
func (c Config) Normalized() Config {
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = DefaultBaudRate
	}
	if c.Serial.AckByte == nil {
		ack := DefaultAckByte
		c.Serial.AckByte = &ack
	}
	c.Serial.Profile = c.Serial.Profile.Normalized(KindSerial)

	if c.BLE.ServiceUUID == "" {
		c.BLE.ServiceUUID = DefaultServiceUUID
	}
	if c.BLE.CharacteristicUUID == "" {
		c.BLE.CharacteristicUUID = DefaultCharacteristicUUID
	}
	if c.BLE.ConnectTimeout <= 0 {
		c.BLE.ConnectTimeout = DefaultBLEConnectTimeout
	}
	c.BLE.Profile = c.BLE.Profile.Normalized(KindBLE)

	c.Sim = c.Sim.Normalized(KindSim)
	return c
}
