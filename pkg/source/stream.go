package source

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Stream reads samples in the serial wire format from any reader, e.g. a
// recorded file or a pipe. Unlike Serial it never drops samples, and the
// samples channel is closed once the reader is exhausted.
type Stream struct {
	r      io.Reader
	speed  float64
	maxGap time.Duration

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}
}

// NewStream creates a stream over r. A positive speed replays samples in
// scaled real time using their timestamps (1 is real time, 2 twice as
// fast); 0 reads as fast as the consumer keeps up.
func NewStream(r io.Reader, speed float64, bufSize int) *Stream {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Stream{
		r:       r,
		speed:   speed,
		maxGap:  time.Second,
		samples: make(chan RawSample, bufSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Connect starts reading.
func (s *Stream) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("stream closed")
	}
	s.connected = true

	go func() {
		defer close(s.done)
		defer close(s.samples)
		readLines(s.ctx, s.r, s.emit())
	}()

	return nil
}

func (s *Stream) emit() func(RawSample) bool {
	var prev time.Time
	return func(sample RawSample) bool {
		if s.speed > 0 && !prev.IsZero() {
			sleep := time.Duration(float64(sample.Timestamp.Sub(prev)) / s.speed)
			sleep = min(sleep, s.maxGap)
			if sleep > 0 {
				select {
				case <-time.After(sleep):
				case <-s.ctx.Done():
					return false
				}
			}
		}
		prev = sample.Timestamp

		select {
		case s.samples <- sample:
			return true
		case <-s.ctx.Done():
			return false
		}
	}
}

// Close stops reading. If the reader is an io.Closer it is closed too.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()
	s.connected = false

	var err error
	if c, ok := s.r.(io.Closer); ok {
		err = c.Close()
	}
	return err
}

// Samples returns the channel for reading samples.
func (s *Stream) Samples() <-chan RawSample {
	return s.samples
}

// IsConnected returns whether the stream is being read.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Done is closed once the reader is exhausted or the stream is closed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
