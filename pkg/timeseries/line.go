package timeseries

import (
	"slices"
	"sort"
)

// Change reports which path Update took.
type Change int

const (
	// Unchanged means length and first sample matched the previous update.
	Unchanged Change = iota
	// Extended means only the appended suffix was ingested.
	Extended
	// Rebuilt means every level was discarded and rebuilt.
	Rebuilt
)

func (c Change) String() string {
	switch c {
	case Extended:
		return "extended"
	case Rebuilt:
		return "rebuilt"
	default:
		return "unchanged"
	}
}

// Bounds is a plot viewport.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// descriptor fingerprints the sequence seen by the last Update.
type descriptor[X any, Y Float] struct {
	len   int
	first Sample[X, Y]
}

type viewCache struct {
	bounds Bounds
	points []Point[float64]
}

// Line is the multi-resolution cache of one series.
type Line[X XValue[X], Y Float] struct {
	id string
	settings

	cached *descriptor[X, Y]
	levels [][]Point[Y]
	view   *viewCache
	origin Origin[X]

	// scans counts levels examined by Query.
	scans int
}

// NewLine creates an empty line cache.
func NewLine[X XValue[X], Y Float](id string, opts ...Option) *Line[X, Y] {
	return &Line[X, Y]{
		id:       id,
		settings: newSettings(opts),
	}
}

// ClearCaches drops every level, the change descriptor and the view
// memo. The next Update rebuilds from scratch.
func (l *Line[X, Y]) ClearCaches() {
	if len(l.levels) == 0 {
		l.levels = append(l.levels, nil)
	} else {
		clear(l.levels[1:])
		l.levels = l.levels[:1]
		l.levels[0] = l.levels[0][:0]
	}
	l.origin.Reset()
	l.cached = nil
	l.view = nil
}

// Update brings the caches in line with seq. Only seq.Len() and seq.At(0)
// are inspected to classify the change; see the package documentation
// for the kinds of edits that go unnoticed.
func (l *Line[X, Y]) Update(seq Sequence[X, Y]) Change {
	next := descriptor[X, Y]{len: seq.Len()}
	if next.len > 0 {
		x, y, ok := seq.At(0)
		next.first = Sample[X, Y]{X: x, Y: y, Valid: ok}
	}

	change := Unchanged
	switch old := l.cached; {
	case old == nil, next.len < old.len, next.first != old.first:
		l.rebuild(seq)
		change = Rebuilt
	case next.len > old.len:
		l.extend(seq, old.len)
		change = Extended
	}

	l.cached = &next
	return change
}

func (l *Line[X, Y]) rebuild(seq Sequence[X, Y]) {
	if l.logger != nil && l.cached != nil {
		l.logger.Printf("timeseries: rebuilding line %q (%d -> %d samples)", l.id, l.cached.len, seq.Len())
	}
	l.ClearCaches()
	l.extend(seq, 0)
}

// extend folds seq[from:] into level 0 and refreshes the tail of every
// coarser level.
func (l *Line[X, Y]) extend(seq Sequence[X, Y], from int) {
	if len(l.levels) == 0 {
		l.levels = append(l.levels, nil)
	}
	l.view = nil

	for i := from; i < seq.Len(); i++ {
		x, y, ok := seq.At(i)
		if !ok {
			continue
		}
		l.levels[0] = append(l.levels[0], Point[Y]{X: x.Offset(&l.origin), Y: y})
	}

	for i := 1; i <= l.maxLevels; i++ {
		if i >= len(l.levels) {
			if len(l.levels[i-1]) <= l.budget {
				break
			}
			l.levels = append(l.levels, nil)
		}

		// The last pair may come from a partial bucket; recompute it.
		level := l.levels[i]
		level = level[:max(len(level), 2)-2]

		parent := l.levels[i-1]
		for start := len(level) / 2 * l.bucketSize; start < len(parent); start += l.bucketSize {
			pair := Downsample(l.method, parent[start:min(start+l.bucketSize, len(parent))])
			level = append(level, pair[0], pair[1])
		}
		l.levels[i] = level
	}
}

// End returns the X offset of the last sample in level 0.
func (l *Line[X, Y]) End() (float64, bool) {
	if len(l.levels) == 0 || len(l.levels[0]) == 0 {
		return 0, false
	}
	level := l.levels[0]
	return level[len(level)-1].X, true
}

// Levels returns the number of cache levels, level 0 included.
func (l *Line[X, Y]) Levels() int {
	return len(l.levels)
}

// LevelLen returns the number of points stored in level k, or 0 if the
// level does not exist.
func (l *Line[X, Y]) LevelLen(k int) int {
	if k < 0 || k >= len(l.levels) {
		return 0
	}
	return len(l.levels[k])
}

// Query returns the points to draw for b. The finest level whose visible
// slice is below the point budget is used, falling back to the coarsest.
// If the slice does not reach the first (last) point of its level, a
// point at that level's first (last) X is added, carrying the slice's own
// first (last) Y, so auto-bounds see the full X extent without pulling in
// off-screen Y values.
func (l *Line[X, Y]) Query(b Bounds) []Point[float64] {
	if len(l.levels) == 0 {
		return nil
	}
	if l.view != nil && l.view.bounds == b {
		return slices.Clone(l.view.points)
	}

	coarsest := len(l.levels) - 1
	for i, level := range l.levels {
		l.scans++

		begin := max(1, sort.Search(len(level), func(j int) bool { return level[j].X >= b.MinX })) - 1
		end := min(sort.Search(len(level), func(j int) bool { return level[j].X > b.MaxX })+1, len(level))
		end = max(end, begin)

		if end-begin < l.budget || i == coarsest {
			points := anchored(level, begin, end)
			l.view = &viewCache{bounds: b, points: points}
			return slices.Clone(points)
		}
	}
	return nil
}

func anchored[Y Float](level []Point[Y], begin, end int) []Point[float64] {
	points := make([]Point[float64], 0, end-begin+2)
	if begin == end {
		return points
	}
	if begin > 0 {
		points = append(points, Point[float64]{X: level[0].X, Y: float64(level[begin].Y)})
	}
	for _, p := range level[begin:end] {
		points = append(points, Point[float64]{X: p.X, Y: float64(p.Y)})
	}
	if end < len(level) {
		points = append(points, Point[float64]{X: level[len(level)-1].X, Y: float64(level[end-1].Y)})
	}
	return points
}
