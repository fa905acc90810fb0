package meter

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/sample"
)

var _ Readout = (*Meter)(nil)

// ChannelStats summarizes one channel over the readout window.
type ChannelStats struct {
	Last  null.Float64 // Latest value; invalid when the latest sample was a gap
	Min   float64
	Max   float64
	Mean  float64
	Slope float64 // Units per second between the last two valid values
	Valid int     // Valid values in the window
	Gaps  int     // Gaps in the window
}

// Stats is a snapshot of the readout window.
type Stats struct {
	Channels []ChannelStats
	Samples  int     // Samples in the window
	Rate     float64 // Samples per second over the window
}

// Readout consumes samples and keeps live statistics of the most recent window.
type Readout interface {
	ProcessSamples(input <-chan sample.Sample)
	Stats() Stats
	OnUpdate(func(Stats))
}

// Meter implements Readout. Every sample is forwarded to the recording
// buffer (when set) and kept in a time-based FIFO for the statistics.
type Meter struct {
	buf *sample.Buffer

	// FIFO of samples ordered oldest first, trimmed by timestamp.
	window []sample.Sample
	mu     sync.RWMutex

	callbacks []func(Stats)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	notifyEvery    time.Duration
	lastNotify     time.Time

	// Set when the input channel closes; no callbacks are sent afterwards.
	shutdown bool
}

// New creates a meter. buf may be nil when only the statistics are needed.
// Callbacks fire at most once per plot frame period of sample time.
func New(cfg *config.Config, buf *sample.Buffer) *Meter {
	return &Meter{
		buf:            buf,
		windowDuration: cfg.Measurement.Window(),
		notifyEvery:    cfg.Plot.FramePeriod(),
	}
}

// ProcessSamples processes samples from the input channel until it closes.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

func (m *Meter) processSample(s sample.Sample) {
	if m.buf != nil {
		m.buf.Append(s)
	}

	m.mu.Lock()
	m.window = append(m.window, s)

	cutoff := s.Timestamp.Add(-m.windowDuration)
	drop := 0
	for drop < len(m.window)-1 && !m.window[drop].Timestamp.After(cutoff) {
		drop++
	}
	// Append reallocates once the resliced capacity runs out, which
	// compacts the window.
	m.window = m.window[drop:]

	notify := !m.shutdown && (m.lastNotify.IsZero() || s.Timestamp.Sub(m.lastNotify) >= m.notifyEvery)
	if notify {
		m.lastNotify = s.Timestamp
	}
	m.mu.Unlock()

	if notify {
		m.notifyCallbacks()
	}
}

// Stats computes the statistics of the current window.
func (m *Meter) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeStats(m.window)
}

func computeStats(window []sample.Sample) Stats {
	st := Stats{Samples: len(window)}
	if len(window) == 0 {
		return st
	}
	if span := window[len(window)-1].Timestamp.Sub(window[0].Timestamp).Seconds(); span > 0 {
		st.Rate = float64(len(window)-1) / span
	}

	channels := 0
	for _, s := range window {
		channels = max(channels, len(s.Values))
	}
	st.Channels = make([]ChannelStats, channels)

	for c := range st.Channels {
		cs := &st.Channels[c]
		cs.Min, cs.Max = math.Inf(1), math.Inf(-1)
		var sum float64
		var prev, last *sample.Sample
		for i := range window {
			s := &window[i]
			if c >= len(s.Values) || !s.Values[c].Valid {
				cs.Gaps++
				continue
			}
			v := s.Values[c].Float64
			cs.Valid++
			sum += v
			cs.Min = math.Min(cs.Min, v)
			cs.Max = math.Max(cs.Max, v)
			prev, last = last, s
		}

		newest := window[len(window)-1]
		if c < len(newest.Values) {
			cs.Last = newest.Values[c]
		}
		if cs.Valid == 0 {
			cs.Min, cs.Max = math.NaN(), math.NaN()
			cs.Mean = math.NaN()
			continue
		}
		cs.Mean = sum / float64(cs.Valid)
		if prev != nil {
			if dt := last.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
				cs.Slope = (last.Values[c].Float64 - prev.Values[c].Float64) / dt
			}
		}
	}
	return st
}

// Format renders the channel readout with unit.
func (cs ChannelStats) Format(unit string) string {
	if cs.Valid == 0 {
		return "no data"
	}
	last := "gap"
	if cs.Last.Valid {
		last = fmt.Sprintf("%.4g %s", cs.Last.Float64, unit)
	}
	return fmt.Sprintf("%s  [%.4g, %.4g]  %+.3g %s/s", last, cs.Min, cs.Max, cs.Slope, unit)
}

// Reset clears the window and the recording buffer.
func (m *Meter) Reset() {
	m.mu.Lock()
	m.window = nil
	m.lastNotify = time.Time{}
	m.mu.Unlock()
	if m.buf != nil {
		m.buf.Reset()
	}
}

// OnUpdate registers a callback that receives the statistics. The callback
// should return quickly.
func (m *Meter) OnUpdate(callback func(Stats)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again. Call it before starting a new
// acquisition chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks computes stats under the read lock, then invokes callbacks
// without holding any lock.
func (m *Meter) notifyCallbacks() {
	stats := m.Stats()

	m.cbMu.RLock()
	callbacks := make([]func(Stats), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(stats)
		}
	}
}
