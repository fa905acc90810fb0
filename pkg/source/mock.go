package source

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/itohio/gotsplot/pkg/config"
)

// Mock simulates a multi-channel device for testing and development.
// Channel c is a sine wave shifted by a quarter period per channel with
// a little deterministic noise on top.
type Mock struct {
	cfg *config.MockConfig

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state
	startTime time.Time
	count     int
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		samples:   make(chan RawSample, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	m.connected = true
	m.startTime = time.Now()
	m.count = 0

	// Start generating samples
	go m.generateSamples()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples generates simulated samples.
func (m *Mock) generateSamples() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			if !m.connected {
				m.mu.Unlock()
				return
			}
			sample := m.generateSample(now)
			// Send under the lock so Close cannot close the channel mid-send.
			select {
			case m.samples <- sample:
			default:
				// Channel full, skip
			}
			m.mu.Unlock()
		}
	}
}

// generateSample generates a single simulated sample. m.mu must be held.
func (m *Mock) generateSample(now time.Time) RawSample {
	n := m.count
	m.count++

	values := make([]null.Float64, max(m.cfg.Channels, 1))
	if m.cfg.GapEvery > 0 && n%m.cfg.GapEvery == m.cfg.GapEvery-1 {
		return RawSample{Timestamp: now, Values: values}
	}

	elapsed := now.Sub(m.startTime)
	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.Period.Seconds()

	// Add noise
	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		m.cfg.NoiseLevel * 0.5

	for c := range values {
		v := m.cfg.Amplitude*math.Sin(phase+float64(c)*math.Pi/2) + noise
		values[c] = null.Float64From(v)
	}

	return RawSample{Timestamp: now, Values: values}
}
