package scope

import (
	"image/color"
	"math"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 20
	marginBottom = 40

	yTicks = 8
	xTicks = 10
)

var (
	backgroundColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	legendColor     = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// rect is the plotting area inside the axis margins.
type rect struct {
	x, y, w, h float32
}

func plotArea(size fyne.Size) rect {
	return rect{
		x: marginLeft,
		y: marginTop,
		w: size.Width - marginLeft - marginRight,
		h: size.Height - marginTop - marginBottom,
	}
}

// project maps a data point to a screen position.
func (a rect) project(b timeseries.Bounds, x, y float64) fyne.Position {
	return fyne.NewPos(
		a.x+float32((x-b.MinX)/(b.MaxX-b.MinX))*a.w,
		a.y+a.h-float32((y-b.MinY)/(b.MaxY-b.MinY))*a.h,
	)
}

// clip cuts the segment p-q to the area (Liang-Barsky). ok is false when
// nothing of the segment is inside.
func (a rect) clip(p, q fyne.Position) (fyne.Position, fyne.Position, bool) {
	if math32.IsNaN(p.X) || math32.IsNaN(p.Y) || math32.IsNaN(q.X) || math32.IsNaN(q.Y) {
		return p, q, false
	}
	dx, dy := q.X-p.X, q.Y-p.Y
	t0, t1 := float32(0), float32(1)
	edges := [4][2]float32{
		{-dx, p.X - a.x},
		{dx, a.x + a.w - p.X},
		{-dy, p.Y - a.y},
		{dy, a.y + a.h - p.Y},
	}
	for _, e := range edges {
		if e[0] == 0 {
			if e[1] < 0 {
				return p, q, false
			}
			continue
		}
		r := e[1] / e[0]
		if e[0] < 0 {
			if r > t1 {
				return p, q, false
			}
			t0 = math32.Max(t0, r)
		} else {
			if r < t0 {
				return p, q, false
			}
			t1 = math32.Min(t1, r)
		}
	}
	return fyne.NewPos(p.X+t0*dx, p.Y+t0*dy), fyne.NewPos(p.X+t1*dx, p.Y+t1*dy), true
}

func newBackground() *canvas.Rectangle {
	return canvas.NewRectangle(backgroundColor)
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *Scope

	background *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 200)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the last completed frame.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	traces := r.scope.shown
	bounds := r.scope.bounds
	title := r.scope.title
	r.scope.mu.RUnlock()

	r.objects = []fyne.CanvasObject{r.background}

	size := r.scope.Size()
	area := plotArea(size)
	if area.w <= 0 || area.h <= 0 {
		return
	}

	r.drawGrid(area, bounds)
	for _, t := range traces {
		r.drawTrace(area, bounds, t)
	}
	r.drawLegend(area, title, traces)
}

// drawGrid draws the grid with value labels on the left and time labels
// below.
func (r *scopeRenderer) drawGrid(area rect, b timeseries.Bounds) {
	for _, v := range ticks(b.MinY, b.MaxY, yTicks) {
		y := area.project(b, b.MinX, v).Y
		r.addLine(gridColor, 1, fyne.NewPos(area.x, y), fyne.NewPos(area.x+area.w, y))

		text := canvas.NewText(formatValue(v), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(area.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	xs := ticks(b.MinX, b.MaxX, xTicks)
	step := 1.0
	if len(xs) > 1 {
		step = xs[1] - xs[0]
	}
	for _, v := range xs {
		x := area.project(b, v, b.MinY).X
		r.addLine(gridColor, 1, fyne.NewPos(x, area.y), fyne.NewPos(x, area.y+area.h))

		text := canvas.NewText(formatSeconds(v, step), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, area.y+area.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one line as connected segments clipped to the area.
func (r *scopeRenderer) drawTrace(area rect, b timeseries.Bounds, t trace) {
	if len(t.points) < 2 {
		return
	}
	prev := area.project(b, t.points[0].X, t.points[0].Y)
	for _, p := range t.points[1:] {
		next := area.project(b, p.X, p.Y)
		if from, to, ok := area.clip(prev, next); ok {
			r.addLine(t.line.Color, t.line.Width, from, to)
		}
		prev = next
	}
}

// drawLegend draws the title and one entry per line in the top left
// corner of the plotting area.
func (r *scopeRenderer) drawLegend(area rect, title string, traces []trace) {
	y := area.y + 4
	if title != "" {
		text := canvas.NewText(title, legendColor)
		text.TextSize = 12
		text.TextStyle = fyne.TextStyle{Bold: true}
		text.Move(fyne.NewPos(area.x+8, y))
		r.objects = append(r.objects, text)
		y += 16
	}
	for _, t := range traces {
		r.addLine(t.line.Color, 2, fyne.NewPos(area.x+8, y+7), fyne.NewPos(area.x+24, y+7))

		label := t.line.Legend()
		if t.readout != "" {
			label += "  " + t.readout
		}
		text := canvas.NewText(label, legendColor)
		text.TextSize = 11
		text.Move(fyne.NewPos(area.x+30, y))
		r.objects = append(r.objects, text)
		y += 15
	}
}

func (r *scopeRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

// ticks returns round grid positions within [lo, hi], aiming for about n
// of them.
func ticks(lo, hi float64, n int) []float64 {
	if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || n < 1 {
		return nil
	}
	step := niceStep((hi - lo) / float64(n))
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// niceStep rounds raw up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatValue(v float64) string {
	if math.Abs(v) < 1e-12 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// formatSeconds formats x with as many decimals as step needs.
func formatSeconds(x, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step)))
	}
	if math.Abs(x) < step*1e-6 {
		x = 0
	}
	return strconv.FormatFloat(x, 'f', decimals, 64) + "s"
}
