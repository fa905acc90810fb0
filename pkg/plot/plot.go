// Package plot drives a rendering Surface from a timeseries.Memory once
// per frame: it feeds the registry, keeps the view attached to the newest
// sample and hands each line's points to the surface.
package plot

import (
	"fmt"
	"math"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

// ViewMode selects how the X range is chosen while auto-bounds are on.
type ViewMode int

const (
	// Complete fits the X range to all data.
	Complete ViewMode = iota
	// AttachedToEdge shows the last view width worth of data up to the
	// newest sample.
	AttachedToEdge
)

func (m ViewMode) String() string {
	switch m {
	case Complete:
		return "complete"
	case AttachedToEdge:
		return "attached"
	default:
		return fmt.Sprintf("ViewMode(%d)", int(m))
	}
}

// Plot is a single frame of one plot. Build it, add lines and call Show;
// state that must survive between frames lives in the Memory and Group.
type Plot[X timeseries.XValue[X], Y timeseries.Float] struct {
	mem      *timeseries.Memory[X, Y]
	group    *timeseries.Group
	lines    []Line
	mode     ViewMode
	width    float64
	includeY []float64
}

// New starts a frame over mem.
func New[X timeseries.XValue[X], Y timeseries.Float](mem *timeseries.Memory[X, Y]) *Plot[X, Y] {
	return &Plot[X, Y]{mem: mem}
}

// Line feeds seq into the registry under line.ID and adds the line to
// the frame.
func (p *Plot[X, Y]) Line(line Line, seq timeseries.Sequence[X, Y]) *Plot[X, Y] {
	p.mem.Update(line.ID, seq)
	p.lines = append(p.lines, line.styled(len(p.lines)))
	return p
}

// Group links the plot to plots sharing g.
func (p *Plot[X, Y]) Group(g *timeseries.Group) *Plot[X, Y] {
	p.group = g
	return p
}

// FollowEdge keeps the view attached to the newest sample. width is the
// initial view width; zooming changes it afterwards.
func (p *Plot[X, Y]) FollowEdge(width float64) *Plot[X, Y] {
	p.mode = AttachedToEdge
	p.width = width
	return p
}

// IncludeY keeps y inside the Y range.
func (p *Plot[X, Y]) IncludeY(y float64) *Plot[X, Y] {
	p.includeY = append(p.includeY, y)
	return p
}

// Mode returns the view mode of the frame.
func (p *Plot[X, Y]) Mode() ViewMode { return p.mode }

// Lines returns the styled lines of the frame.
func (p *Plot[X, Y]) Lines() []Line { return p.lines }

// Show renders the frame onto s.
func (p *Plot[X, Y]) Show(s Surface) {
	mem := p.mem
	if p.group != nil {
		if w, ok := p.group.ViewWidth(); ok {
			mem.SetViewWidth(w)
		}
	}

	s.BeginFrame()
	if p.mode == AttachedToEdge {
		mem.SeedViewWidth(p.width)
		end, _ := mem.End()
		s.IncludeX(end)
		s.IncludeX(end - mem.ViewWidth())
	}
	if p.group != nil && p.group.LinkY {
		if lo, hi, ok := p.group.YRange(); ok {
			s.IncludeY(lo)
			s.IncludeY(hi)
		}
	}
	for _, y := range p.includeY {
		s.IncludeY(y)
	}

	if mem.ResetAutoBoundsNextFrame {
		s.SetAutoBoundsX(true)
		mem.ResetAutoBoundsNextFrame = false
	}
	mem.LastAutoBounds = s.AutoBoundsX()

	var lo, hi float64
	drawn := false
	for _, line := range p.lines {
		points := mem.Query(line.ID, s.Bounds())
		for _, pt := range points {
			if math.IsNaN(pt.Y) {
				continue
			}
			if !drawn {
				lo, hi, drawn = pt.Y, pt.Y, true
				continue
			}
			lo = min(lo, pt.Y)
			hi = max(hi, pt.Y)
		}
		s.DrawLine(line, points)
	}
	s.EndFrame()

	// A zoom turns auto-bounds off; reattach to the edge with the new
	// width on the next frame. A complete view keeps the zoomed range,
	// since auto-bounds there would show all data again.
	if factor, hovered := s.ZoomX(); hovered && mem.LastAutoBounds && factor != 1 && p.mode == AttachedToEdge {
		mem.ResetAutoBoundsNextFrame = true
		mem.SetViewWidth(mem.ViewWidth() / factor)
		if p.group != nil {
			p.group.SetViewWidth(mem.ViewWidth())
		}
	}

	if p.group != nil && p.group.LinkY {
		if drawn {
			p.group.PublishY(mem.ID, lo, hi)
		} else {
			p.group.PublishY(mem.ID, 1, 0)
		}
	}
}
