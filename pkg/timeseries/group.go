package timeseries

import "math"

// Group links several plots so they share their zoom level and,
// optionally, their Y range. Plots of one frame loop share a *Group; it
// has no locking of its own.
type Group struct {
	Name  string
	LinkY bool

	viewWidth float64
	hasWidth  bool
	yRanges   map[string][2]float64
}

// NewGroup creates a link group.
func NewGroup(name string, linkY bool) *Group {
	return &Group{
		Name:    name,
		LinkY:   linkY,
		yRanges: make(map[string][2]float64),
	}
}

// ViewWidth returns the width last published by a member plot.
func (g *Group) ViewWidth() (float64, bool) {
	return g.viewWidth, g.hasWidth
}

// SetViewWidth publishes a new view width to every member.
func (g *Group) SetViewWidth(w float64) {
	g.viewWidth = w
	g.hasWidth = true
}

// PublishY records the Y range drawn by plot id in the last frame.
func (g *Group) PublishY(id string, lo, hi float64) {
	if g.yRanges == nil {
		g.yRanges = make(map[string][2]float64)
	}
	if lo > hi || math.IsNaN(lo) || math.IsNaN(hi) {
		delete(g.yRanges, id)
		return
	}
	g.yRanges[id] = [2]float64{lo, hi}
}

// YRange returns the union of the Y ranges published by all members.
func (g *Group) YRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range g.yRanges {
		lo = min(lo, r[0])
		hi = max(hi, r[1])
		ok = true
	}
	return lo, hi, ok
}
