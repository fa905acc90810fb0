package timeseries

import (
	"math"
	"sort"
)

// Memory is the cache registry of one plot. Create it once, keep it for
// as long as the plot is shown and feed it every frame; lines are created
// on their first Update and live as long as the Memory.
type Memory[X XValue[X], Y Float] struct {
	// ID identifies the plot, e.g. as a key in a Group.
	ID string

	lines    map[string]*Line[X, Y]
	settings settings

	// Per-plot viewport state kept across frames by the plot driver.

	// ResetAutoBoundsNextFrame asks the next frame to switch X auto-bounds
	// back on, e.g. after a zoom changed the view width.
	ResetAutoBoundsNextFrame bool
	// LastAutoBounds is whether X auto-bounds were on in the last frame.
	LastAutoBounds bool

	viewWidth       float64
	viewWidthPinned bool
}

// DefaultViewWidth is the initial view width of a Memory.
const DefaultViewWidth = 10.0

// NewMemory creates an empty registry. Options apply to every line.
func NewMemory[X XValue[X], Y Float](id string, opts ...Option) *Memory[X, Y] {
	return &Memory[X, Y]{
		ID:                       id,
		lines:                    make(map[string]*Line[X, Y]),
		settings:                 newSettings(opts),
		ResetAutoBoundsNextFrame: true,
		LastAutoBounds:           true,
		viewWidth:                DefaultViewWidth,
	}
}

// Update feeds seq into the cache of lineID, creating the line on first
// use.
func (m *Memory[X, Y]) Update(lineID string, seq Sequence[X, Y]) Change {
	line, ok := m.lines[lineID]
	if !ok {
		line = &Line[X, Y]{id: lineID, settings: m.settings}
		m.lines[lineID] = line
	}
	return line.Update(seq)
}

// Query returns the points of lineID to draw for b, or nil if the line
// is unknown.
func (m *Memory[X, Y]) Query(lineID string, b Bounds) []Point[float64] {
	line, ok := m.lines[lineID]
	if !ok {
		return nil
	}
	return line.Query(b)
}

// End returns the largest last-known X offset across all lines that hold
// data.
func (m *Memory[X, Y]) End() (float64, bool) {
	end, found := math.Inf(-1), false
	for _, line := range m.lines {
		if x, ok := line.End(); ok {
			end = max(end, x)
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return end, true
}

// ClearCaches invalidates every line. Call it after editing data in a
// way Update cannot detect.
func (m *Memory[X, Y]) ClearCaches() {
	for _, line := range m.lines {
		line.ClearCaches()
	}
}

// ClearLine invalidates one line. Unknown ids are ignored.
func (m *Memory[X, Y]) ClearLine(lineID string) {
	if line, ok := m.lines[lineID]; ok {
		line.ClearCaches()
	}
}

// Line returns the cache of lineID.
func (m *Memory[X, Y]) Line(lineID string) (*Line[X, Y], bool) {
	line, ok := m.lines[lineID]
	return line, ok
}

// LineIDs returns the known line ids in sorted order.
func (m *Memory[X, Y]) LineIDs() []string {
	ids := make([]string, 0, len(m.lines))
	for id := range m.lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ViewWidth returns the preferred X width of the view.
func (m *Memory[X, Y]) ViewWidth() float64 {
	return m.viewWidth
}

// SetViewWidth sets the preferred X width of the view. Non-positive
// widths are ignored.
func (m *Memory[X, Y]) SetViewWidth(w float64) {
	if w > 0 && !math.IsInf(w, 0) {
		m.viewWidth = w
		m.viewWidthPinned = true
	}
}

// SeedViewWidth sets the view width unless one was already set, so an
// initial width does not override a later zoom.
func (m *Memory[X, Y]) SeedViewWidth(w float64) {
	if !m.viewWidthPinned {
		m.SetViewWidth(w)
	}
}
