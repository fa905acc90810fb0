package sample

import (
	"log"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

// Buffer is an append-only multi-channel recording. X positions are
// seconds since the first sample, so every channel shares one axis.
//
// Appends never touch existing entries and Reset allocates fresh slices,
// so a Series taken from the buffer stays valid while recording goes on.
type Buffer struct {
	mu       sync.RWMutex
	start    time.Time
	xs       []timeseries.Linear
	channels [][]null.Float64
	dropped  int
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append records s. Samples older than the newest one are dropped.
func (b *Buffer) Append(s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.xs) == 0 {
		b.start = s.Timestamp
	}
	x := timeseries.Linear(s.Timestamp.Sub(b.start).Seconds())
	if n := len(b.xs); n > 0 && x < b.xs[n-1] {
		if b.dropped == 0 {
			log.Printf("sample: dropping out-of-order sample at %s", s.Timestamp.Format(time.RFC3339Nano))
		}
		b.dropped++
		return
	}

	// A channel seen for the first time starts with gaps.
	for len(b.channels) < len(s.Values) {
		b.channels = append(b.channels, make([]null.Float64, len(b.xs)))
	}

	b.xs = append(b.xs, x)
	for i := range b.channels {
		var v null.Float64
		if i < len(s.Values) {
			v = s.Values[i]
		}
		b.channels[i] = append(b.channels[i], v)
	}
}

// Consume appends every sample from in until it is closed.
func (b *Buffer) Consume(in <-chan Sample) {
	for s := range in {
		b.Append(s)
	}
}

// Len returns the number of recorded samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.xs)
}

// Channels returns the number of channels seen so far.
func (b *Buffer) Channels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}

// Dropped returns the number of out-of-order samples dropped.
func (b *Buffer) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Start returns the timestamp of X = 0.
func (b *Buffer) Start() (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.start, len(b.xs) > 0
}

// Channel returns a snapshot of channel i. Unknown channels are empty.
func (b *Buffer) Channel(i int) Series {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i < 0 || i >= len(b.channels) {
		return Series{}
	}
	return Series{xs: b.xs, ys: b.channels[i]}
}

// Reset forgets every sample.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.start = time.Time{}
	b.xs = nil
	b.channels = nil
	b.dropped = 0
}

// Series is a read-only view of one channel.
type Series struct {
	xs []timeseries.Linear
	ys []null.Float64
}

var _ timeseries.Sequence[timeseries.Linear, float64] = Series{}

// Len implements timeseries.Sequence.
func (s Series) Len() int { return len(s.xs) }

// At implements timeseries.Sequence.
func (s Series) At(i int) (timeseries.Linear, float64, bool) {
	return s.xs[i], s.ys[i].Float64, s.ys[i].Valid
}
