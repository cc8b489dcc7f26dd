package protocol

import "errors"

var (
	ErrInvalidChunkSize = errors.New("protocol: chunk size must be positive")
	ErrSentinelInField  = errors.New("protocol: record field contains a frame sentinel")
)
