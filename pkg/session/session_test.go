package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/source"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

// surface records the lines of the last frame.
type surface struct {
	*plot.Viewport
	drawn map[string][]timeseries.Point[float64]
}

func newSurface() *surface {
	return &surface{Viewport: plot.NewViewport()}
}

func (s *surface) BeginFrame() {
	s.Viewport.BeginFrame()
	s.drawn = make(map[string][]timeseries.Point[float64])
}

func (s *surface) DrawLine(line plot.Line, points []timeseries.Point[float64]) {
	s.Observe(points)
	s.drawn[line.ID] = points
}

// recording is n samples 10ms apart; ch1 has a gap every 10th sample.
func recording(n int) string {
	var sb strings.Builder
	for i := range n {
		ch1 := fmt.Sprint(2 * i)
		if i%10 == 9 {
			ch1 = ""
		}
		fmt.Fprintf(&sb, "%d,%d,%s\n", 1_700_000_000_000_000+i*10_000, i, ch1)
	}
	return sb.String()
}

func run(t *testing.T, s *Session, n int) {
	t.Helper()
	dev := source.NewStream(strings.NewReader(recording(n)), 0, 100)
	require.NoError(t, s.Start(dev))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("chain did not drain")
	}
}

func TestSession_SinglePlot(t *testing.T) {
	cfg := config.Default()
	cfg.Plot.FollowEdge = false
	s, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, s.Plots())

	run(t, s, 200)
	s.Stop()
	assert.Equal(t, 200, s.Buffer().Len())

	surf := newSurface()
	s.Show(0, surf)
	require.Len(t, surf.drawn, 2)
	assert.Len(t, surf.drawn["ch0"], 200)
	assert.Len(t, surf.drawn["ch1"], 180, "gaps are not drawn")

	last := surf.drawn["ch0"][199]
	assert.InDelta(t, 1.99, last.X, 1e-9)
	assert.Equal(t, 199.0, last.Y)

	assert.NotEmpty(t, s.Readout("ch0"))
	assert.Empty(t, s.Readout("missing"))
	assert.Contains(t, s.Status(), "200 samples")
}

func TestSession_LinkedPlotsFollowEdge(t *testing.T) {
	cfg := config.Default()
	cfg.Plot.LinkGroup = "scope"
	cfg.Plot.LinkY = true
	cfg.Plot.ViewWidth = 0.5
	s, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, s.Plots())

	run(t, s, 200)
	s.Stop()

	surfaces := []*surface{newSurface(), newSurface()}
	for i, surf := range surfaces {
		s.Show(i, surf)
	}

	require.Contains(t, surfaces[0].drawn, "ch0")
	require.Contains(t, surfaces[1].drawn, "ch1")
	assert.NotContains(t, surfaces[0].drawn, "ch1")

	// Both follow the newest sample with the configured width.
	b := surfaces[0].Bounds()
	assert.InDelta(t, 1.49, b.MinX, 1e-9)
	assert.InDelta(t, 1.99, b.MaxX, 1e-9)

	// The Y range of ch1 covers ch0 through the group.
	y := surfaces[1].Bounds()
	assert.Less(t, y.MinY, 150.0)
}

func TestSession_ClearAndRestart(t *testing.T) {
	cfg := config.Default()
	s, err := New(cfg)
	require.NoError(t, err)

	run(t, s, 50)
	assert.True(t, s.Running())
	assert.ErrorIs(t, s.Start(source.NewStream(strings.NewReader(""), 0, 1)), ErrRunning)
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.Nil(t, s.Done())

	s.Clear()
	assert.Zero(t, s.Buffer().Len())

	run(t, s, 20)
	s.Stop()
	assert.Equal(t, 20, s.Buffer().Len())
}

func TestSession_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Plot.Downsampling = "median"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestSession_Line(t *testing.T) {
	cfg := config.Default()
	cfg.Channels[1].Color = "#ff0000"
	s, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "ch0 [V]", s.Line(0).Legend())
	assert.NotNil(t, s.Line(1).Color)
	assert.Equal(t, "ch5", s.Line(5).ID)
}
