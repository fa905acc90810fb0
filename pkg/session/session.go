// Package session wires a device to the plot caches: the acquisition
// chain runs in the background while the UI shows one frame at a time.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/meter"
	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/sample"
	"github.com/itohio/gotsplot/pkg/source"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

// ErrRunning is returned by Start while a device is attached.
var ErrRunning = errors.New("session already running")

const pipelineBuffer = 500

// Memory is the cache registry type used by sessions.
type Memory = timeseries.Memory[timeseries.Linear, float64]

// chain tracks the components of the acquisition chain for graceful shutdown.
type chain struct {
	device    source.Device
	meterDone chan struct{} // Closed when the meter goroutine exits
}

// Session owns the recording, the readout meter and one cache registry
// per plot. With a link group configured every channel gets its own plot
// and the plots share the group; otherwise all channels share one plot.
//
// Show, Clear and Readout must be called from a single UI goroutine.
type Session struct {
	cfg   *config.Config
	buf   *sample.Buffer
	meter *meter.Meter
	group *timeseries.Group
	mems  []*Memory

	mu    sync.Mutex
	chain *chain
}

// New creates an idle session for cfg.
func New(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opts, err := cfg.Plot.MemoryOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, timeseries.WithLogger(log.Default()))

	buf := sample.NewBuffer()
	s := &Session{
		cfg:   cfg,
		buf:   buf,
		meter: meter.New(cfg, buf),
	}

	if cfg.Plot.LinkGroup != "" {
		s.group = timeseries.NewGroup(cfg.Plot.LinkGroup, cfg.Plot.LinkY)
		for i := range cfg.Channels {
			s.mems = append(s.mems, timeseries.NewMemory[timeseries.Linear, float64](s.channelID(i), opts...))
		}
	} else {
		s.mems = []*Memory{timeseries.NewMemory[timeseries.Linear, float64]("plot", opts...)}
	}
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Buffer returns the recording.
func (s *Session) Buffer() *sample.Buffer { return s.buf }

// Meter returns the readout meter.
func (s *Session) Meter() *meter.Meter { return s.meter }

// Plots returns how many plots the session shows.
func (s *Session) Plots() int { return len(s.mems) }

// Start connects dev and runs the acquisition chain until Stop or until
// the device runs dry.
func (s *Session) Start(dev source.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain != nil {
		return ErrRunning
	}
	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.meter.ResetShutdown()
	samples := sample.Pipeline(s.cfg, pipelineBuffer)(dev.Samples())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.meter.ProcessSamples(samples)
	}()

	s.chain = &chain{device: dev, meterDone: done}
	return nil
}

// Running reports whether a device is attached. A drained device stays
// attached until Stop.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain != nil
}

// Done is closed when the current chain has drained. It is nil when idle.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return nil
	}
	return s.chain.meterDone
}

// Stop closes the device and waits for the chain to drain. The recording
// is kept.
func (s *Session) Stop() {
	s.mu.Lock()
	c := s.chain
	s.chain = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	if err := c.device.Close(); err != nil {
		log.Printf("session: closing device: %v", err)
	}
	<-c.meterDone
}

// Clear drops the recording and every cache.
func (s *Session) Clear() {
	s.meter.Reset()
	for _, mem := range s.mems {
		mem.ClearCaches()
	}
}

// Show builds and shows the i-th plot frame on surf.
func (s *Session) Show(i int, surf plot.Surface) {
	if i < 0 || i >= len(s.mems) {
		return
	}
	p := plot.New(s.mems[i])
	if s.group != nil {
		p.Group(s.group)
	}
	if s.cfg.Plot.FollowEdge {
		p.FollowEdge(s.cfg.Plot.ViewWidth)
	}
	for _, ch := range s.channelsOf(i) {
		p.Line(s.Line(ch), s.buf.Channel(ch))
	}
	p.Show(surf)
}

// channelsOf lists the channels drawn by plot i.
func (s *Session) channelsOf(i int) []int {
	if s.group != nil {
		return []int{i}
	}
	n := max(len(s.cfg.Channels), s.buf.Channels())
	out := make([]int, n)
	for ch := range out {
		out[ch] = ch
	}
	return out
}

func (s *Session) channelID(ch int) string {
	if ch < len(s.cfg.Channels) && s.cfg.Channels[ch].Name != "" {
		return s.cfg.Channels[ch].Name
	}
	return fmt.Sprintf("ch%d", ch)
}

// Line returns the styled line of channel ch.
func (s *Session) Line(ch int) plot.Line {
	line := plot.NewLine(s.channelID(ch))
	if ch >= len(s.cfg.Channels) {
		return line
	}
	cc := s.cfg.Channels[ch]
	line = line.WithUnit(cc.Unit)
	if c, err := cc.ParseColor(); err == nil && c != nil {
		line = line.WithColor(c)
	}
	return line
}

// Readout returns the live statistics text of the line with id.
func (s *Session) Readout(id string) string {
	stats := s.meter.Stats()
	for ch, cs := range stats.Channels {
		if s.channelID(ch) != id {
			continue
		}
		var unit string
		if ch < len(s.cfg.Channels) {
			unit = s.cfg.Channels[ch].Unit
		}
		return cs.Format(unit)
	}
	return ""
}

// Status summarizes the recording for a status bar.
func (s *Session) Status() string {
	stats := s.meter.Stats()
	status := fmt.Sprintf("%d samples  %.0f S/s", s.buf.Len(), stats.Rate)
	if d := s.buf.Dropped(); d > 0 {
		status += fmt.Sprintf("  %d dropped", d)
	}
	return status
}
