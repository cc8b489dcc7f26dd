package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports an operator-initiated abort.
	ErrCancelled = errors.New("transfer: cancelled")
	// ErrTransferActive rejects a submission while another is running.
	ErrTransferActive = errors.New("transfer: another transfer is in progress")
)

// ConnectError means the link never opened; no chunks were attempted.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("transfer: connect failed: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransmitError pins a write failure to the chunk it interrupted.
type TransmitError struct {
	Chunk uint32
	Err   error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("transfer: chunk %d transmit failed: %v", e.Chunk, e.Err)
}

func (e *TransmitError) Unwrap() error { return e.Err }

// AckError means the receiver never confirmed the named chunk within
// the transport's ack timeout. The transfer aborts; a retried
// submission always restarts from chunk 1.
type AckError struct {
	Chunk uint32
	Err   error
}

func (e *AckError) Error() string {
	return fmt.Sprintf("transfer: chunk %d not acknowledged: %v", e.Chunk, e.Err)
}

func (e *AckError) Unwrap() error { return e.Err }
