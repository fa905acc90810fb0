package plot

import (
	"math"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

// YMargin is the fraction of the Y range added above and below the data.
const YMargin = 0.05

// span is a closed interval that grows as values are added.
type span struct {
	lo, hi float64
	ok     bool
}

func (s *span) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !s.ok {
		s.lo, s.hi, s.ok = v, v, true
		return
	}
	s.lo = min(s.lo, v)
	s.hi = max(s.hi, v)
}

func (s *span) merge(o span) {
	if o.ok {
		s.add(o.lo)
		s.add(o.hi)
	}
}

// Viewport is the bounds bookkeeping shared by surfaces. It implements
// every Surface method except DrawLine. X follows IncludeX, or the data
// seen in the previous frame, while auto-bounds are on; a zoom or a pan
// freezes it. Y always follows the drawn data and IncludeY.
//
// Zoom and Pan are queued and applied by EndFrame, after the frame was
// drawn with the bounds it started with.
//
// Viewport is not safe for concurrent use.
type Viewport struct {
	autoX      bool
	minX, maxX float64

	includeX, includeY span
	dataX, dataY       span // previous frame
	nextX, nextY       span // current frame

	pendingZoom   float64
	pendingCenter float64
	pendingPan    float64

	zoom    float64
	hovered bool
}

// NewViewport returns a viewport with X auto-bounds on.
func NewViewport() *Viewport {
	return &Viewport{autoX: true, zoom: 1, pendingZoom: 1}
}

// BeginFrame implements Surface.
func (v *Viewport) BeginFrame() {
	v.includeX = span{}
	v.includeY = span{}
	v.nextX = span{}
	v.nextY = span{}
}

// IncludeX implements Surface.
func (v *Viewport) IncludeX(x float64) { v.includeX.add(x) }

// IncludeY implements Surface.
func (v *Viewport) IncludeY(y float64) { v.includeY.add(y) }

// AutoBoundsX implements Surface.
func (v *Viewport) AutoBoundsX() bool { return v.autoX }

// SetAutoBoundsX implements Surface.
func (v *Viewport) SetAutoBoundsX(on bool) {
	if !on && v.autoX {
		v.minX, v.maxX = v.rangeX()
	}
	v.autoX = on
}

// Bounds implements Surface. With auto-bounds on and nothing known yet
// the X range is unbounded, so the first frame queries everything.
func (v *Viewport) Bounds() timeseries.Bounds {
	var b timeseries.Bounds
	switch {
	case !v.autoX:
		b.MinX, b.MaxX = v.minX, v.maxX
	case v.includeX.ok:
		b.MinX, b.MaxX = v.includeX.lo, v.includeX.hi
	case v.dataX.ok:
		b.MinX, b.MaxX = v.dataX.lo, v.dataX.hi
	default:
		b.MinX, b.MaxX = math.Inf(-1), math.Inf(1)
	}
	if b.MaxX <= b.MinX {
		b.MaxX = b.MinX + 1
	}

	y := v.dataY
	y.merge(v.includeY)
	b.MinY, b.MaxY = paddedY(y)
	return b
}

// paddedY adds YMargin around y. An empty span maps to [0, 1].
func paddedY(y span) (lo, hi float64) {
	if !y.ok {
		return 0, 1
	}
	margin := (y.hi - y.lo) * YMargin
	if margin == 0 {
		margin = 0.5
	}
	return y.lo - margin, y.hi + margin
}

// rangeX is the finite X range of Bounds.
func (v *Viewport) rangeX() (lo, hi float64) {
	b := v.Bounds()
	if math.IsInf(b.MinX, 0) || math.IsInf(b.MaxX, 0) {
		// Points drawn in this frame, else the previous frame's.
		for _, s := range []span{v.nextX, v.dataX} {
			if s.ok {
				return s.lo, max(s.hi, s.lo+1)
			}
		}
		return 0, 1
	}
	return b.MinX, b.MaxX
}

// Observe records drawn points for next frame's auto-bounds. Surfaces
// call it from DrawLine.
func (v *Viewport) Observe(points []timeseries.Point[float64]) {
	for _, p := range points {
		v.nextX.add(p.X)
		v.nextY.add(p.Y)
	}
}

// EndFrame implements Surface. Queued zooms and pans take effect here.
func (v *Viewport) EndFrame() {
	v.dataX = v.nextX
	v.dataY = v.nextY

	if v.pendingZoom != 1 {
		lo, hi := v.rangeX()
		width := (hi - lo) / v.pendingZoom
		pivot := lo + (hi-lo)*v.pendingCenter
		v.minX = pivot - width*v.pendingCenter
		v.maxX = v.minX + width
		v.autoX = false
		v.zoom *= v.pendingZoom
		v.pendingZoom = 1
	}
	if v.pendingPan != 0 {
		lo, hi := v.rangeX()
		shift := (hi - lo) * v.pendingPan
		v.minX, v.maxX = lo+shift, hi+shift
		v.autoX = false
		v.pendingPan = 0
	}
}

// ZoomX implements Surface.
func (v *Viewport) ZoomX() (float64, bool) {
	factor := v.zoom
	v.zoom = 1
	return factor, v.hovered
}

// Zoom scales the X range by factor around the relative position center
// (0 is the left edge, 1 the right one). Factors above 1 zoom in.
func (v *Viewport) Zoom(factor, center float64) {
	if factor <= 0 || factor == 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	v.pendingZoom *= factor
	v.pendingCenter = min(max(center, 0), 1)
}

// Pan moves the X range by fraction of its width. Positive values move
// toward larger X.
func (v *Viewport) Pan(fraction float64) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return
	}
	v.pendingPan += fraction
}

// SetHovered records whether the pointer is over the surface.
func (v *Viewport) SetHovered(h bool) { v.hovered = h }

// Hovered reports whether the pointer is over the surface.
func (v *Viewport) Hovered() bool { return v.hovered }

// ResetView switches X auto-bounds back on and drops queued gestures.
func (v *Viewport) ResetView() {
	v.autoX = true
	v.zoom = 1
	v.pendingZoom = 1
	v.pendingPan = 0
}

// DisplayBounds is Bounds with a finite X range, for mapping points to
// the screen. Once points were drawn in this frame Y covers them and
// IncludeY.
func (v *Viewport) DisplayBounds() timeseries.Bounds {
	b := v.Bounds()
	b.MinX, b.MaxX = v.rangeX()
	if v.nextY.ok {
		y := v.nextY
		y.merge(v.includeY)
		b.MinY, b.MaxY = paddedY(y)
	}
	return b
}
