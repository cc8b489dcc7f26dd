package transport

import (
	"context"
	"sync"
)

// Sim is the no-I/O transport used for demos and as the fallback when
// discovery finds no hardware. It obeys the same connect/send/ack
// discipline as the real links so the rest of the system is always
// exercisable.
type Sim struct {
	profile Profile

	mu        sync.Mutex
	connected bool
	sent      int
	bytesSent int
}

func NewSim(profile Profile) *Sim {
	return &Sim{profile: profile.Normalized(KindSim)}
}

func (s *Sim) Kind() Kind       { return KindSim }
func (s *Sim) Profile() Profile { return s.profile }

func (s *Sim) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.connected = true
	return nil
}

func (s *Sim) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sent++
	s.bytesSent += len(data)
	return nil
}

func (s *Sim) AwaitAck(ctx context.Context) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return sleep(ctx, s.profile.InterChunkDelay)
}

func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// SentChunks reports how many chunks were accepted since creation.
func (s *Sim) SentChunks() (chunks, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent, s.bytesSent
}
