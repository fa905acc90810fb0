package termscope

import (
	"math"

	styles "github.com/charmbracelet/lipgloss"
	drawille "github.com/chriskim06/drawille-go"

	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

var _ plot.Surface = (*Surface)(nil)

// Surface renders frames into a braille canvas. The canvas scales Y to
// the drawn data on its own, so only the X bounds of the viewport apply.
type Surface struct {
	*plot.Viewport

	width, height int
	canvas        *drawille.Canvas

	// Index of the highlighted line.
	selected int

	frame  [][]timeseries.Point[float64]
	lines  []plot.Line
	bounds timeseries.Bounds
	empty  bool
}

// NewSurface creates a surface of w x h terminal cells. The terminal is
// treated as hovered, so keyboard zooms reattach to the edge.
func NewSurface(w, h int) *Surface {
	s := &Surface{Viewport: plot.NewViewport(), empty: true}
	s.SetHovered(true)
	s.Resize(w, h)
	return s
}

// Resize changes the canvas size in terminal cells.
func (s *Surface) Resize(w, h int) {
	s.width, s.height = max(1, w), max(1, h)
	c := drawille.NewCanvas(s.width, s.height)
	c.NumDataPoints = s.columns()
	c.ShowAxis = false
	if s.canvas != nil {
		c.LineColors = s.canvas.LineColors
	}
	s.canvas = &c
}

// columns is the horizontal braille resolution.
func (s *Surface) columns() int {
	return 2 * s.width
}

// Select highlights the i-th line, wrapping around.
func (s *Surface) Select(i int) {
	s.selected = i
}

// Selected returns the highlighted line of the last frame, if any.
func (s *Surface) Selected() (plot.Line, bool) {
	if len(s.lines) == 0 {
		return plot.Line{}, false
	}
	return s.lines[s.selectedIndex()], true
}

func (s *Surface) selectedIndex() int {
	if len(s.lines) == 0 {
		return 0
	}
	return ((s.selected % len(s.lines)) + len(s.lines)) % len(s.lines)
}

// BeginFrame implements plot.Surface.
func (s *Surface) BeginFrame() {
	s.Viewport.BeginFrame()
	s.frame = s.frame[:0]
	s.lines = s.lines[:0]
}

// DrawLine implements plot.Surface.
func (s *Surface) DrawLine(line plot.Line, points []timeseries.Point[float64]) {
	s.Observe(points)
	s.frame = append(s.frame, points)
	s.lines = append(s.lines, line)
}

// EndFrame implements plot.Surface. Lines are resampled onto the canvas
// columns over the X bounds the frame was queried with; the selected line
// is drawn last so it stays on top.
func (s *Surface) EndFrame() {
	s.bounds = s.DisplayBounds()
	s.Viewport.EndFrame()

	cols := s.columns()
	series := make([][]float64, 0, len(s.frame))
	colors := make([]drawille.Color, 0, len(s.frame))
	highlight, dim := lineColors()
	sel := s.selectedIndex()
	for i, points := range s.frame {
		if i == sel {
			continue
		}
		if ys := resample(points, s.bounds.MinX, s.bounds.MaxX, cols); ys != nil {
			series = append(series, ys)
			colors = append(colors, dim)
		}
	}
	if sel < len(s.frame) {
		if ys := resample(s.frame[sel], s.bounds.MinX, s.bounds.MaxX, cols); ys != nil {
			series = append(series, ys)
			colors = append(colors, highlight)
		}
	}

	s.empty = len(series) == 0
	if s.empty {
		return
	}
	s.canvas.NumDataPoints = cols
	s.canvas.LineColors = colors
	s.canvas.Fill(series)
}

// FrameBounds returns the X bounds the last frame was drawn with.
func (s *Surface) FrameBounds() timeseries.Bounds {
	return s.bounds
}

// String renders the canvas, or an empty box before the first data.
func (s *Surface) String() string {
	if s.empty {
		return styles.Place(s.width, s.height, styles.Center, styles.Center, "waiting for data")
	}
	return s.canvas.String()
}

func lineColors() (highlight, dim drawille.Color) {
	if styles.DefaultRenderer().HasDarkBackground() {
		return drawille.Red, drawille.DimGray
	}
	return drawille.Black, drawille.LightGray
}

// resample holds the last point at or left of each of cols evenly spaced
// positions in [lo, hi]. Columns left of the first point take its value.
// NaN values are held over from the previous column. It returns nil when
// there is nothing to draw.
func resample(points []timeseries.Point[float64], lo, hi float64, cols int) []float64 {
	if len(points) == 0 || cols < 1 || !(hi > lo) {
		return nil
	}
	out := make([]float64, cols)
	first := math.NaN()
	for _, p := range points {
		if !math.IsNaN(p.Y) {
			first = p.Y
			break
		}
	}
	if math.IsNaN(first) {
		return nil
	}

	j := -1
	held := first
	for c := range out {
		x := lo
		if cols > 1 {
			x = lo + (hi-lo)*float64(c)/float64(cols-1)
		}
		for j+1 < len(points) && points[j+1].X <= x {
			j++
			if !math.IsNaN(points[j].Y) {
				held = points[j].Y
			}
		}
		out[c] = held
	}
	return out
}
