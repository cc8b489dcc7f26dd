// Package transport abstracts the links that carry schedule payloads
// to a dispenser: acknowledged byte-stream serial, unacknowledged
// short-MTU BLE, and a no-I/O simulation used when no hardware is
// reachable.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies a transport variant.
type Kind string

const (
	KindSerial Kind = "serial"
	KindBLE    Kind = "ble"
	KindSim    Kind = "sim"
)

var (
	ErrNotConnected   = errors.New("transport: not connected")
	ErrNoAck          = errors.New("transport: acknowledgment missing or incorrect")
	ErrUnknownAddress = errors.New("transport: unknown address scheme")
)

// Profile is the tuning surface of one transport variant. ChunkSize,
// InterChunkDelay and AckRequired fully determine the session's pacing
// behavior. The values are empirically tuned against receiver firmware,
// not derived from a documented device protocol, so every one of them
// is overridable through configuration.
type Profile struct {
	ChunkSize       int
	InterChunkDelay time.Duration
	AckTimeout      time.Duration
	SettleDelay     time.Duration
	DrainDelay      time.Duration
	AckRequired     bool
}

// DefaultProfile returns the built-in tuning for one variant.
func DefaultProfile(kind Kind) Profile {
	switch kind {
	case KindSerial:
		return Profile{
			ChunkSize:       64,
			InterChunkDelay: 50 * time.Millisecond,
			AckTimeout:      2 * time.Second,
			SettleDelay:     2 * time.Second,
			DrainDelay:      100 * time.Millisecond,
			AckRequired:     true,
		}
	case KindBLE:
		return Profile{
			ChunkSize:       20,
			InterChunkDelay: 200 * time.Millisecond,
			SettleDelay:     time.Second,
			DrainDelay:      500 * time.Millisecond,
			AckRequired:     false,
		}
	default:
		return Profile{
			ChunkSize:       20,
			InterChunkDelay: 20 * time.Millisecond,
			AckRequired:     false,
		}
	}
}

// Normalized fills unset (zero or negative) fields from the variant
// defaults. AckRequired is a property of the variant, not a tunable.
func (p Profile) Normalized(kind Kind) Profile {
	def := DefaultProfile(kind)
	if p.ChunkSize <= 0 {
		p.ChunkSize = def.ChunkSize
	}
	if p.InterChunkDelay <= 0 {
		p.InterChunkDelay = def.InterChunkDelay
	}
	if p.AckTimeout <= 0 {
		p.AckTimeout = def.AckTimeout
	}
	if p.SettleDelay <= 0 {
		p.SettleDelay = def.SettleDelay
	}
	if p.DrainDelay <= 0 {
		p.DrainDelay = def.DrainDelay
	}
	p.AckRequired = def.AckRequired
	return p
}

// Transport is the capability set a transfer session drives. A
// Transport instance is exclusively owned by one session per attempt
// and must be re-connected before any reuse.
type Transport interface {
	// Connect opens the link and waits the settle delay so the device
	// firmware finishes initializing before the first byte arrives.
	Connect(ctx context.Context) error
	// Send writes one chunk's bytes and flushes them onto the link.
	Send(ctx context.Context, data []byte) error
	// AwaitAck blocks up to the profile's ack timeout for the receiver
	// confirmation. Variants without receiver feedback return nil
	// immediately; the session paces those via InterChunkDelay instead.
	AwaitAck(ctx context.Context) error
	// Disconnect flushes in-flight data and closes the link.
	Disconnect() error
	Profile() Profile
	Kind() Kind
}

// Dial resolves a discovery address into a connectable transport.
// Address schemes: serial:<port>, ble:<mac>, sim:<label>.
func Dial(address string, cfg Config) (Transport, error) {
	cfg = cfg.Normalized()
	scheme, rest, ok := strings.Cut(address, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddress, address)
	}
	switch Kind(scheme) {
	case KindSerial:
		return NewSerial(rest, cfg), nil
	case KindBLE:
		return NewBLE(rest, cfg), nil
	case KindSim:
		return NewSim(cfg.Sim), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddress, address)
	}
}

// sleep pauses for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
