// Package transfer drives a transport through one schedule submission:
// chunk sequencing, pacing, acknowledgment, cancellation, and
// failure reporting.
package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pilldrop/dispenserctl/internal/observability"
	"github.com/pilldrop/dispenserctl/internal/protocol"
	"github.com/pilldrop/dispenserctl/internal/transport"
)

// State is one point in the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSending
	StateAwaitingAck
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSending:
		return "sending"
	case StateAwaitingAck:
		return "awaiting_ack"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Snapshot is a point-in-time copy of session counters.
type Snapshot struct {
	State      State
	ChunkIndex int
	ChunkCount int
	BytesSent  int
	Err        error
}

// Session owns exactly one transport for one submission attempt. It is
// created per attempt and discarded once it reaches a terminal state;
// the transport must be re-connected before any reuse.
type Session struct {
	tr       transport.Transport
	payload  protocol.Payload
	observer Observer

	mu         sync.Mutex
	state      State
	chunkIndex int
	chunkCount int
	bytesSent  int
	err        error
}

func NewSession(tr transport.Transport, payload protocol.Payload, obs Observer) *Session {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Session{
		tr:       tr,
		payload:  payload,
		observer: obs,
		state:    StateIdle,
	}
}

// Snapshot returns current counters; safe from any goroutine.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		ChunkIndex: s.chunkIndex,
		ChunkCount: s.chunkCount,
		BytesSent:  s.bytesSent,
		Err:        s.err,
	}
}

// Run executes the transfer to a terminal state. Blocking points are
// connect, the ack read, and pacing delays; callers that must stay
// responsive run it via a Dispatcher, which puts it on its own
// goroutine. Cancellation is cooperative: ctx is checked at chunk
// boundaries, so one in-flight chunk may still complete after a cancel
// request.
func (s *Session) Run(ctx context.Context) error {
	kind := string(s.tr.Kind())
	profile := s.tr.Profile()
	started := time.Now()

	chunks, err := protocol.Split(s.payload, profile.ChunkSize)
	if err != nil {
		return s.fail(kind, started, err)
	}
	s.mu.Lock()
	s.chunkCount = len(chunks)
	s.mu.Unlock()

	log.Info().
		Str("transport", kind).
		Int("chunks", len(chunks)).
		Int("payload_bytes", len(s.payload)).
		Msg("transfer starting")

	s.setState(StateConnecting)
	if err := s.tr.Connect(ctx); err != nil {
		return s.fail(kind, started, &ConnectError{Err: err})
	}
	defer s.disconnect(kind)

	for _, chunk := range chunks {
		// Cancellation boundary: never mid-send.
		if ctx.Err() != nil {
			return s.fail(kind, started, ErrCancelled)
		}

		s.setState(StateSending)
		if err := s.tr.Send(ctx, chunk.Data); err != nil {
			return s.fail(kind, started, &TransmitError{Chunk: chunk.Seq, Err: err})
		}

		if profile.AckRequired {
			s.setState(StateAwaitingAck)
			if err := s.tr.AwaitAck(ctx); err != nil {
				return s.fail(kind, started, &AckError{Chunk: chunk.Seq, Err: err})
			}
		}

		// The chunk is done once its ack step completes. Counters and
		// the progress event land before the pacing sleep, so an abort
		// during the sleep cannot discard the record of a sent chunk.
		s.mu.Lock()
		s.chunkIndex = int(chunk.Seq)
		s.bytesSent += len(chunk.Data)
		progress := Progress{
			ChunkIndex: s.chunkIndex,
			ChunkCount: s.chunkCount,
			BytesSent:  s.bytesSent,
		}
		s.mu.Unlock()

		observability.RecordChunkSent(kind, len(chunk.Data))
		s.observer.OnProgress(progress)

		if err := sleepCtx(ctx, profile.InterChunkDelay); err != nil {
			return s.fail(kind, started, ErrCancelled)
		}
	}

	// Let the receiver flush the tail of the payload before teardown.
	if err := sleepCtx(ctx, profile.DrainDelay); err != nil {
		return s.fail(kind, started, ErrCancelled)
	}

	s.setState(StateComplete)
	observability.RecordTransfer(kind, "complete", time.Since(started))
	log.Info().
		Str("transport", kind).
		Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(started)).
		Msg("transfer complete")
	s.observer.OnComplete()
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) fail(kind string, started time.Time, err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	observability.RecordTransfer(kind, failureReason(err), time.Since(started))
	log.Error().
		Str("transport", kind).
		Err(err).
		Msg("transfer failed")
	s.observer.OnFailed(err)
	return err
}

func (s *Session) disconnect(kind string) {
	if err := s.tr.Disconnect(); err != nil {
		log.Warn().Str("transport", kind).Err(err).Msg("disconnect failed")
	}
}

func failureReason(err error) string {
	switch err.(type) {
	case *ConnectError:
		return "connect_error"
	case *TransmitError:
		return "transmit_error"
	case *AckError:
		return "ack_error"
	}
	if errors.Is(err, ErrCancelled) {
		return "cancelled"
	}
	return "error"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
