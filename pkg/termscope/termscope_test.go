package termscope

import (
	"math"
	"strings"
	"testing"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

func ramp(n int) timeseries.Samples[timeseries.Linear, float64] {
	s := make(timeseries.Samples[timeseries.Linear, float64], n)
	for i := range s {
		s[i] = timeseries.Sample[timeseries.Linear, float64]{X: timeseries.Linear(i), Y: float64(i % 10), Valid: true}
	}
	return s
}

func pts(xy ...float64) []timeseries.Point[float64] {
	out := make([]timeseries.Point[float64], 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, timeseries.Point[float64]{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestResample(t *testing.T) {
	tests := []struct {
		name   string
		points []timeseries.Point[float64]
		lo, hi float64
		cols   int
		want   []float64
	}{
		{"empty", nil, 0, 1, 4, nil},
		{"flat range", pts(0, 1), 1, 1, 4, nil},
		{"hold", pts(0, 1, 1, 2, 2, 3), 0, 3, 4, []float64{1, 2, 3, 3}},
		{"leading columns take first value", pts(2, 5, 3, 6), 0, 3, 4, []float64{5, 5, 5, 6}},
		{"last point in a column wins", pts(0, 1, 0.4, 9, 0.6, 4, 1, 2), 0, 1, 2, []float64{1, 2}},
		{"NaN is held over", pts(0, 1, 1, math.NaN(), 2, 3), 0, 2, 3, []float64{1, 1, 3}},
		{"only NaN", pts(0, math.NaN()), 0, 1, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resample(tt.points, tt.lo, tt.hi, tt.cols))
		})
	}
}

func TestSurface_DrawsFrame(t *testing.T) {
	s := NewSurface(40, 10)
	assert.Contains(t, s.String(), "waiting for data")

	mem := timeseries.NewMemory[timeseries.Linear, float64]("term")
	p := plot.New(mem).
		Line(plot.NewLine("a"), ramp(100)).
		Line(plot.NewLine("b").WithUnit("V"), ramp(50))
	p.Show(s)

	b := s.FrameBounds()
	assert.Equal(t, 0.0, b.MinX)
	assert.Equal(t, 99.0, b.MaxX)
	assert.NotContains(t, s.String(), "waiting for data")

	line, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", line.ID)

	s.Select(3)
	line, _ = s.Selected()
	assert.Equal(t, "b", line.ID)
}

func TestModel_KeysDriveViewport(t *testing.T) {
	mem := timeseries.NewMemory[timeseries.Linear, float64]("term")
	data := ramp(1000)
	cleared := false
	m := New(Options{
		Title: "test",
		Frame: func(s plot.Surface) {
			plot.New(mem).Line(plot.NewLine("a"), data).FollowEdge(100).Show(s)
		},
		Readout: func(id string) string { return "readout-" + id },
		Clear:   func() { cleared = true },
	})

	m.Update(tui.WindowSizeMsg{Width: 60, Height: 20})
	m.Update(FrameTickMsg{})
	b := m.Surface().FrameBounds()
	assert.Equal(t, 899.0, b.MinX)
	assert.Equal(t, 999.0, b.MaxX)

	view := m.View()
	assert.Contains(t, view, "test")
	assert.Contains(t, view, "readout-a")
	assert.Contains(t, view, "FOLLOW")

	// Zooming in keeps following the edge with a narrower width.
	m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'+'}})
	m.Update(FrameTickMsg{})
	m.Update(FrameTickMsg{})
	b = m.Surface().FrameBounds()
	assert.InDelta(t, 999-100/ZoomStep, b.MinX, 1e-9)
	assert.Equal(t, 999.0, b.MaxX)
	assert.True(t, m.Surface().AutoBoundsX())

	// Panning detaches until follow is pressed.
	m.Update(tui.KeyMsg{Type: tui.KeyLeft})
	m.Update(FrameTickMsg{})
	m.Update(FrameTickMsg{})
	assert.False(t, m.Surface().AutoBoundsX())
	assert.Contains(t, m.View(), "MANUAL")

	m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'f'}})
	assert.True(t, m.Surface().AutoBoundsX())

	m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'c'}})
	assert.True(t, cleared)
}

func TestModel_Pause(t *testing.T) {
	frames := 0
	m := New(Options{Frame: func(plot.Surface) { frames++ }})

	m.Update(FrameTickMsg{})
	m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'p'}})
	m.Update(FrameTickMsg{})
	assert.Equal(t, 1, frames)
	assert.True(t, strings.Contains(m.View(), "PAUSED"))

	m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'p'}})
	m.Update(FrameTickMsg{})
	assert.Equal(t, 2, frames)
}

func TestModel_Quit(t *testing.T) {
	m := New(Options{})
	_, cmd := m.Update(tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tui.Quit(), cmd())
}
