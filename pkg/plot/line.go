package plot

import (
	"image/color"
)

// DefaultLineWidth is the stroke width of a line without an explicit width.
const DefaultLineWidth = 1.5

// Palette is the color cycle used for lines without an explicit color.
var Palette = []color.Color{
	color.RGBA{R: 255, G: 165, B: 0, A: 255},   // orange
	color.RGBA{R: 100, G: 200, B: 255, A: 255}, // light blue
	color.RGBA{R: 120, G: 220, B: 120, A: 255}, // green
	color.RGBA{R: 230, G: 90, B: 90, A: 255},   // red
	color.RGBA{R: 200, G: 140, B: 255, A: 255}, // violet
	color.RGBA{R: 240, G: 230, B: 120, A: 255}, // yellow
}

// Line describes how one series is drawn. ID keys the series in the
// cache registry; everything else is presentation.
type Line struct {
	ID    string
	Label string
	Unit  string
	Color color.Color
	Width float32
}

// NewLine creates a line labelled with its id.
func NewLine(id string) Line {
	return Line{ID: id, Label: id}
}

// WithLabel returns a copy of l with the legend label set.
func (l Line) WithLabel(label string) Line {
	l.Label = label
	return l
}

// WithUnit returns a copy of l with the unit set.
func (l Line) WithUnit(unit string) Line {
	l.Unit = unit
	return l
}

// WithColor returns a copy of l with the stroke color set.
func (l Line) WithColor(c color.Color) Line {
	l.Color = c
	return l
}

// WithWidth returns a copy of l with the stroke width set.
func (l Line) WithWidth(w float32) Line {
	l.Width = w
	return l
}

// Legend returns the legend text, e.g. "ch0 [V]".
func (l Line) Legend() string {
	if l.Unit == "" {
		return l.Label
	}
	return l.Label + " [" + l.Unit + "]"
}

// styled fills in the color and width of the i-th line of a plot.
func (l Line) styled(i int) Line {
	if l.Color == nil {
		l.Color = Palette[i%len(Palette)]
	}
	if l.Width <= 0 {
		l.Width = DefaultLineWidth
	}
	if l.Label == "" {
		l.Label = l.ID
	}
	return l
}
