package transport

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// BLE drives the unacknowledged short-MTU wireless link. Chunks are
// written to one fixed GATT characteristic; the dispenser gives no
// receipt feedback, so throughput is respected purely through the
// profile's inter-chunk delay.
type BLE struct {
	address  string
	settings BLESettings
	adapter  *bluetooth.Adapter

	mu        sync.Mutex
	device    bluetooth.Device
	writeChar bluetooth.DeviceCharacteristic
	connected bool
}

func NewBLE(address string, cfg Config) *BLE {
	return &BLE{
		address:  address,
		settings: cfg.BLE,
		adapter:  bluetooth.DefaultAdapter,
	}
}

func (b *BLE) Kind() Kind       { return KindBLE }
func (b *BLE) Profile() Profile { return b.settings.Profile }

func (b *BLE) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return nil
	}

	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("transport: enable bluetooth adapter: %w", err)
	}

	mac, err := bluetooth.ParseMAC(b.address)
	if err != nil {
		return fmt.Errorf("transport: parse ble address %q: %w", b.address, err)
	}
	addr := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}

	device, err := b.adapter.Connect(addr, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(b.settings.ConnectTimeout),
	})
	if err != nil {
		return fmt.Errorf("transport: connect %s: %w", b.address, err)
	}

	writeChar, err := b.discoverWriteChar(device)
	if err != nil {
		device.Disconnect()
		return err
	}

	if err := sleep(ctx, b.settings.Profile.SettleDelay); err != nil {
		device.Disconnect()
		return err
	}

	b.device = device
	b.writeChar = writeChar
	b.connected = true
	return nil
}

func (b *BLE) discoverWriteChar(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var zero bluetooth.DeviceCharacteristic

	svcUUID, err := bluetooth.ParseUUID(b.settings.ServiceUUID)
	if err != nil {
		return zero, fmt.Errorf("transport: parse service uuid: %w", err)
	}
	charUUID, err := bluetooth.ParseUUID(b.settings.CharacteristicUUID)
	if err != nil {
		return zero, fmt.Errorf("transport: parse characteristic uuid: %w", err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return zero, fmt.Errorf("transport: discover services: %w", err)
	}
	if len(services) == 0 {
		return zero, fmt.Errorf("transport: dispenser service %s not found", b.settings.ServiceUUID)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil {
		return zero, fmt.Errorf("transport: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return zero, fmt.Errorf("transport: write characteristic %s not found", b.settings.CharacteristicUUID)
	}
	return chars[0], nil
}

func (b *BLE) Send(ctx context.Context, data []byte) error {
	b.mu.Lock()
	connected := b.connected
	writeChar := b.writeChar
	b.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := writeChar.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("transport: ble write: %w", err)
	}
	return nil
}

// AwaitAck is a no-op: the link carries no receiver feedback.
func (b *BLE) AwaitAck(ctx context.Context) error { return nil }

// Disconnect tears the link down. The session has already waited the
// profile's drain delay, so in-flight packets had their chance to
// reach the device.
func (b *BLE) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil
	}
	b.connected = false
	if err := b.device.Disconnect(); err != nil {
		return fmt.Errorf("transport: ble disconnect: %w", err)
	}
	return nil
}
