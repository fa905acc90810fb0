package scope

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

var (
	_ plot.Surface           = (*Scope)(nil)
	_ fyne.Scrollable        = (*Scope)(nil)
	_ fyne.Draggable         = (*Scope)(nil)
	_ fyne.DoubleTappable    = (*Scope)(nil)
	_ fyne.SecondaryTappable = (*Scope)(nil)
	_ desktop.Hoverable      = (*Scope)(nil)
)

// ZoomStep is the X zoom factor of one scroll notch.
const ZoomStep = 1.2

// trace is one line as drawn in a frame.
type trace struct {
	line    plot.Line
	points  []timeseries.Point[float64]
	readout string
}

// Scope is an oscilloscope-style Fyne widget that plots lines handed to
// it by plot.Show. Scrolling zooms X around the pointer, dragging pans,
// a double tap (or secondary tap) reattaches the view to the data.
//
// All methods must be called on the Fyne main goroutine, i.e. from event
// handlers or inside fyne.Do.
type Scope struct {
	widget.BaseWidget
	*plot.Viewport

	title string

	// Frame being built between BeginFrame and EndFrame.
	frame []trace

	// Last completed frame (protected by mu)
	mu       sync.RWMutex
	shown    []trace
	bounds   timeseries.Bounds
	readouts map[string]string
}

// New creates an empty scope. title is drawn above the legend and may be
// empty.
func New(title string) *Scope {
	s := &Scope{
		Viewport: plot.NewViewport(),
		title:    title,
		bounds:   timeseries.Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1},
		readouts: make(map[string]string),
	}
	s.ExtendBaseWidget(s)
	return s
}

// SetReadout attaches a live readout text to the legend entry of line id.
func (s *Scope) SetReadout(id, text string) {
	s.mu.Lock()
	s.readouts[id] = text
	s.mu.Unlock()
}

// BeginFrame implements plot.Surface.
func (s *Scope) BeginFrame() {
	s.Viewport.BeginFrame()
	s.frame = s.frame[:0]
}

// DrawLine implements plot.Surface.
func (s *Scope) DrawLine(line plot.Line, points []timeseries.Point[float64]) {
	s.Observe(points)
	s.frame = append(s.frame, trace{line: line, points: points})
}

// EndFrame implements plot.Surface. The finished frame is published to
// the renderer with the bounds it was queried with.
func (s *Scope) EndFrame() {
	bounds := s.DisplayBounds()
	s.Viewport.EndFrame()

	s.mu.Lock()
	s.shown = append(s.shown[:0:0], s.frame...)
	for i := range s.shown {
		s.shown[i].readout = s.readouts[s.shown[i].line.ID]
	}
	s.bounds = bounds
	s.mu.Unlock()

	s.Refresh()
}

// Frame returns the lines and bounds of the last completed frame.
func (s *Scope) Frame() ([]plot.Line, timeseries.Bounds) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]plot.Line, len(s.shown))
	for i, t := range s.shown {
		lines[i] = t.line
	}
	return lines, s.bounds
}

// Scrolled zooms X around the pointer. Scrolling up zooms in.
func (s *Scope) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY == 0 {
		return
	}
	factor := ZoomStep
	if ev.Scrolled.DY < 0 {
		factor = 1 / ZoomStep
	}
	area := plotArea(s.Size())
	if area.w <= 0 {
		return
	}
	s.Zoom(factor, float64((ev.Position.X-area.x)/area.w))
}

// Dragged pans X so the data follows the pointer.
func (s *Scope) Dragged(ev *fyne.DragEvent) {
	area := plotArea(s.Size())
	if area.w <= 0 {
		return
	}
	s.Pan(-float64(ev.Dragged.DX / area.w))
}

// DragEnd implements fyne.Draggable.
func (s *Scope) DragEnd() {}

// DoubleTapped reattaches the view to the data.
func (s *Scope) DoubleTapped(*fyne.PointEvent) {
	s.ResetView()
}

// TappedSecondary reattaches the view to the data.
func (s *Scope) TappedSecondary(*fyne.PointEvent) {
	s.ResetView()
}

// MouseIn implements desktop.Hoverable.
func (s *Scope) MouseIn(*desktop.MouseEvent) { s.SetHovered(true) }

// MouseMoved implements desktop.Hoverable.
func (s *Scope) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (s *Scope) MouseOut() { s.SetHovered(false) }

// CreateRenderer creates the widget renderer.
func (s *Scope) CreateRenderer() fyne.WidgetRenderer {
	r := &scopeRenderer{
		scope:      s,
		background: newBackground(),
	}
	r.objects = []fyne.CanvasObject{r.background}
	return r
}
