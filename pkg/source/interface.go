package source

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Device defines the interface for sample sources (serial, stream or mocked).
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan RawSample
	IsConnected() bool
}

// RawSample is one multi-channel reading as delivered by a device.
// An invalid value marks a gap in that channel.
type RawSample struct {
	Timestamp time.Time
	Values    []null.Float64
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Stream implements Device.
var _ Device = (*Stream)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
