package plot

import "github.com/itohio/gotsplot/pkg/timeseries"

// Surface is a rendering backend driven once per frame by Plot.Show.
//
// Calls within one frame arrive in this order: BeginFrame, any number of
// IncludeX/IncludeY/SetAutoBoundsX, AutoBoundsX, then Bounds and DrawLine
// for every line, then EndFrame and finally ZoomX.
type Surface interface {
	// BeginFrame starts a frame and forgets the previous frame's includes.
	BeginFrame()
	// IncludeX asks X auto-bounds to cover x in this frame.
	IncludeX(x float64)
	// IncludeY asks Y auto-bounds to cover y in this frame.
	IncludeY(y float64)
	// AutoBoundsX reports whether the X range follows the data.
	AutoBoundsX() bool
	// SetAutoBoundsX switches X auto-bounds on or off.
	SetAutoBoundsX(on bool)
	// Bounds is the visible data rectangle of this frame.
	Bounds() timeseries.Bounds
	// DrawLine draws the points of one line in X order.
	DrawLine(line Line, points []timeseries.Point[float64])
	// EndFrame finishes the frame.
	EndFrame()
	// ZoomX returns the X zoom factor applied by the user since the last
	// call (1 for none) and whether the pointer hovers the surface.
	ZoomX() (factor float64, hovered bool)
}
