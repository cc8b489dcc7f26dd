package transport

import (
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// Serial drives an acknowledged byte-stream link. The dispenser side
// reads the port at a fixed baud rate and answers every chunk with one
// acknowledgment byte.
type Serial struct {
	portName string
	settings SerialSettings

	mu   sync.Mutex
	port serial.Port
}

func NewSerial(portName string, cfg Config) *Serial {
	cfg = cfg.Normalized()
	return &Serial{
		portName: portName,
		settings: cfg.Serial,
	}
}

func (s *Serial) Kind() Kind       { return KindSerial }
func (s *Serial) Profile() Profile { return s.settings.Profile }

// Connect opens the port. Opening a serial port reboots most hobbyist
// dispenser boards, so the settle delay covers firmware init before the
// first chunk is written.
func (s *Serial) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	mode := &serial.Mode{BaudRate: s.settings.BaudRate}
	port, err := serial.Open(s.portName, mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.portName, err)
	}
	if err := sleep(ctx, s.settings.Profile.SettleDelay); err != nil {
		port.Close()
		return err
	}
	s.port = port
	return nil
}

func (s *Serial) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}
	for len(data) > 0 {
		n, err := port.Write(data)
		if err != nil {
			return fmt.Errorf("transport: write %s: %w", s.portName, err)
		}
		data = data[n:]
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("transport: drain %s: %w", s.portName, err)
	}
	return nil
}

// AwaitAck reads exactly one byte within the ack timeout. Anything
// other than the configured ack byte, a timed-out read, or a read error
// all count as not acknowledged.
func (s *Serial) AwaitAck(ctx context.Context) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := port.SetReadTimeout(s.settings.Profile.AckTimeout); err != nil {
		return fmt.Errorf("transport: set read timeout: %w", err)
	}
	var buf [1]byte
	n, err := port.Read(buf[:])
	if err != nil {
		return fmt.Errorf("%w: read failed: %v", ErrNoAck, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: timed out after %v", ErrNoAck, s.settings.Profile.AckTimeout)
	}
	if want := *s.settings.AckByte; buf[0] != want {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrNoAck, buf[0], want)
	}
	return nil
}

func (s *Serial) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	port := s.port
	s.port = nil
	if err := port.Drain(); err != nil {
		port.Close()
		return fmt.Errorf("transport: drain on close: %w", err)
	}
	return port.Close()
}
