package transfer

import (
	"context"
	"sync"

	"github.com/pilldrop/dispenserctl/internal/protocol"
	"github.com/pilldrop/dispenserctl/internal/transport"
)

// Dispatcher enforces the one-active-transfer rule and keeps the
// session off the caller's goroutine so pacing delays and blocked ack
// reads never stall the control surface. There are no ambient
// globals: the control surface holds one Dispatcher and submits
// through it.
type Dispatcher struct {
	mu      sync.Mutex
	current *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Submit starts a transfer on its own goroutine. It rejects with
// ErrTransferActive while a prior submission has not reached a
// terminal state. The returned session exposes Snapshot for polling;
// obs receives the event stream.
func (d *Dispatcher) Submit(ctx context.Context, tr transport.Transport, payload protocol.Payload, obs Observer) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil && !d.current.Snapshot().State.Terminal() {
		return nil, ErrTransferActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	sess := NewSession(tr, payload, obs)
	done := make(chan struct{})
	d.current = sess
	d.cancel = cancel
	d.done = done

	go func() {
		defer close(done)
		defer cancel()
		sess.Run(runCtx)
	}()
	return sess, nil
}

// Cancel requests a cooperative abort of the active transfer, if any.
// The session checks the request at the next chunk boundary.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the active transfer reaches a terminal state and
// returns its outcome. With no active transfer it returns nil.
func (d *Dispatcher) Wait() error {
	d.mu.Lock()
	sess := d.current
	done := d.done
	d.mu.Unlock()
	if sess == nil {
		return nil
	}
	<-done
	return sess.Snapshot().Err
}

// Active reports whether a transfer is between submission and its
// terminal state.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil && !d.current.Snapshot().State.Terminal()
}
