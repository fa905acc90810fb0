package timeseries

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wave returns n gap-free samples at x = i with a deterministic,
// non-monotonic y.
func wave(n int) Samples[Linear, float64] {
	s := make(Samples[Linear, float64], n)
	for i := range n {
		s[i] = Sample[Linear, float64]{X: Linear(i), Y: math.Sin(float64(i)*0.01) + float64(i%7)*0.1, Valid: true}
	}
	return s
}

// countingSeq wraps a Sequence and counts At calls.
type countingSeq struct {
	Sequence[Linear, float64]
	calls int
}

func (c *countingSeq) At(i int) (Linear, float64, bool) {
	c.calls++
	return c.Sequence.At(i)
}

func TestLine_FirstUpdateRebuilds(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	assert.Equal(t, Rebuilt, l.Update(wave(10)))
	assert.Equal(t, 1, l.Levels())
	assert.Equal(t, 10, l.LevelLen(0))
	assert.Equal(t, 0, l.LevelLen(1))
	assert.Equal(t, 0, l.LevelLen(-1))
}

func TestLine_AppendOnlyGrowth(t *testing.T) {
	data := wave(9000)
	l := NewLine[Linear, float64]("a")
	l.Update(data[:3000])
	before := slices.Clone(l.levels[0])

	assert.Equal(t, Extended, l.Update(data))

	level0 := l.levels[0]
	require.Len(t, level0, 9000)
	assert.Equal(t, before, level0[:3000], "existing level 0 entries must not change")
	for i, s := range data[3000:] {
		assert.Equal(t, Point[float64]{X: float64(s.X), Y: s.Y}, level0[3000+i])
	}
}

func TestLine_IncrementalMatchesRebuild(t *testing.T) {
	data := wave(150_000)

	incremental := NewLine[Linear, float64]("a")
	n := 0
	for _, step := range []int{1, 7, 333, 4096, 5, 8, 20_000, 3, 50_000} {
		n += step
		incremental.Update(data[:n])
	}
	incremental.Update(data)

	scratch := NewLine[Linear, float64]("a")
	scratch.Update(data)

	require.Equal(t, scratch.Levels(), incremental.Levels())
	for k := range scratch.levels {
		assert.Equal(t, scratch.levels[k], incremental.levels[k], "level %d", k)
	}
}

func TestLine_PrependTriggersRebuild(t *testing.T) {
	data := wave(20_000)
	l := NewLine[Linear, float64]("a")
	l.Update(data)

	changed := slices.Clone(data)
	changed[0].Y = 100
	assert.Equal(t, Rebuilt, l.Update(changed))

	scratch := NewLine[Linear, float64]("a")
	scratch.Update(changed)

	assert.Equal(t, scratch.levels, l.levels)
	for _, b := range []Bounds{
		{MinX: 0, MaxX: 20_000},
		{MinX: 100, MaxX: 200},
		{MinX: 5_000, MaxX: 15_000},
	} {
		assert.Equal(t, scratch.Query(b), l.Query(b))
	}
}

func TestLine_InsertAtFrontRebuilds(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	l.Update(wave(100))

	front := Samples[Linear, float64]{{X: -1, Y: 42, Valid: true}}
	longer := append(front, wave(100)...)
	assert.Equal(t, Rebuilt, l.Update(longer))
	assert.Equal(t, 101, l.LevelLen(0))
	assert.Equal(t, Point[float64]{X: -1, Y: 42}, l.levels[0][0])
}

func TestLine_DeletionRebuilds(t *testing.T) {
	data := wave(100)
	l := NewLine[Linear, float64]("a")
	l.Update(data)

	assert.Equal(t, Rebuilt, l.Update(data[:60]))
	assert.Equal(t, 60, l.LevelLen(0))
	end, ok := l.End()
	require.True(t, ok)
	assert.Equal(t, 59.0, end)
}

func TestLine_LevelMonotonicity(t *testing.T) {
	for _, n := range []int{0, 10, DefaultPointBudget, DefaultPointBudget + 1, 20_000, 100_000, 1_000_000} {
		l := NewLine[Linear, float64]("a")
		l.Update(wave(n))

		for k := 1; k < l.Levels(); k++ {
			assert.LessOrEqual(t, l.LevelLen(k), l.LevelLen(k-1), "n=%d level=%d", n, k)
			assert.Greater(t, l.LevelLen(k-1), DefaultPointBudget, "n=%d: level %d exists without need", n, k)
		}
		if l.Levels() <= DefaultMaxLevels {
			assert.LessOrEqual(t, l.LevelLen(l.Levels()-1), DefaultPointBudget, "n=%d: missing a level", n)
		}
		assert.LessOrEqual(t, l.Levels(), DefaultMaxLevels+1)
	}
}

func TestLine_LevelCounts(t *testing.T) {
	tests := []struct {
		n      int
		levels []int
	}{
		{n: 4000, levels: []int{4000}},
		{n: 4001, levels: []int{4001, 1002}},
		{n: 100_000, levels: []int{100_000, 25_000, 6_250, 1_564}},
	}
	for _, tt := range tests {
		l := NewLine[Linear, float64]("a")
		l.Update(wave(tt.n))
		got := make([]int, l.Levels())
		for k := range got {
			got[k] = l.LevelLen(k)
		}
		assert.Equal(t, tt.levels, got, "n=%d", tt.n)
	}
}

func TestLine_MaxLevelsCapsDepth(t *testing.T) {
	l := NewLine[Linear, float64]("a", WithPointBudget(10), WithMaxLevels(2))
	l.Update(wave(10_000))
	assert.Equal(t, 3, l.Levels())

	flat := NewLine[Linear, float64]("a", WithMaxLevels(0))
	flat.Update(wave(10_000))
	assert.Equal(t, 1, flat.Levels())
}

func TestLine_GapsAreDropped(t *testing.T) {
	seq := Samples[Linear, float64]{
		{X: 0, Y: 1, Valid: true},
		{X: 1},
		{X: 2, Y: 3, Valid: true},
		{X: 3},
		{X: 4, Y: 5, Valid: true},
	}
	l := NewLine[Linear, float64]("a")
	l.Update(seq)

	assert.Equal(t, []Point[float64]{{X: 0, Y: 1}, {X: 2, Y: 3}, {X: 4, Y: 5}},
		l.Query(Bounds{MinX: 0, MaxX: 4}))

	// A gap appended later is skipped the same way.
	seq = append(seq, Sample[Linear, float64]{X: 5}, Sample[Linear, float64]{X: 6, Y: 7, Valid: true})
	assert.Equal(t, Extended, l.Update(seq))
	assert.Equal(t, 4, l.LevelLen(0))
}

func TestLine_UnchangedUpdateIsNoOp(t *testing.T) {
	data := wave(100_000)
	l := NewLine[Linear, float64]("a")
	l.Update(data)

	lens := make([]int, l.Levels())
	heads := make([]*Point[float64], l.Levels())
	for k := range lens {
		lens[k] = l.LevelLen(k)
		heads[k] = &l.levels[k][0]
	}

	seq := &countingSeq{Sequence: data}
	assert.Equal(t, Unchanged, l.Update(seq))
	assert.Equal(t, 1, seq.calls, "an unchanged sequence is only peeked at")

	require.Equal(t, len(lens), l.Levels())
	for k := range lens {
		assert.Equal(t, lens[k], l.LevelLen(k))
		assert.Same(t, heads[k], &l.levels[k][0], "level %d was reallocated", k)
	}
}

func TestLine_InPlaceEditIsNotDetected(t *testing.T) {
	data := wave(1000)
	l := NewLine[Linear, float64]("a")
	l.Update(data)
	b := Bounds{MinX: 0, MaxX: 1000}
	before := l.Query(b)

	edited := slices.Clone(data)
	edited[500].Y = 1e6
	assert.Equal(t, Unchanged, l.Update(edited))
	assert.Equal(t, before, l.Query(b), "equal-length edits keep serving cached points")

	l.ClearCaches()
	assert.Equal(t, Rebuilt, l.Update(edited))
	after := l.Query(b)
	assert.Equal(t, 1e6, after[500].Y)
}

func TestLine_QueryMemo(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	l.Update(wave(50_000))
	b := Bounds{MinX: 1000, MaxX: 30_000, MinY: -1, MaxY: 2}

	first := l.Query(b)
	scans := l.scans
	second := l.Query(b)
	assert.Equal(t, first, second)
	assert.Equal(t, scans, l.scans, "a repeated query must not touch the levels")

	// The memo hands out copies.
	second[0].Y = 123
	assert.Equal(t, first, l.Query(b))

	moved := b
	moved.MaxY = 3
	l.Query(moved)
	assert.Greater(t, l.scans, scans, "different bounds invalidate the memo")

	scans = l.scans
	l.Update(wave(50_001))
	l.Query(moved)
	assert.Greater(t, l.scans, scans, "new data invalidates the memo")
}

func TestLine_EdgeAnchoring(t *testing.T) {
	data := make(Samples[Linear, float64], 100)
	for i := range data {
		data[i] = Sample[Linear, float64]{X: Linear(i), Y: float64(i * i), Valid: true}
	}
	l := NewLine[Linear, float64]("a")
	l.Update(data)

	pts := l.Query(Bounds{MinX: 40, MaxX: 60})
	// Slice is [39, 62): one point of slack on each side.
	require.Len(t, pts, 23+2)
	assert.Equal(t, Point[float64]{X: 0, Y: 39 * 39}, pts[0], "first X of the level, Y of the slice")
	assert.Equal(t, Point[float64]{X: 39, Y: 39 * 39}, pts[1])
	assert.Equal(t, Point[float64]{X: 61, Y: 61 * 61}, pts[len(pts)-2])
	assert.Equal(t, Point[float64]{X: 99, Y: 61 * 61}, pts[len(pts)-1], "last X of the level, Y of the slice")

	whole := l.Query(Bounds{MinX: -10, MaxX: 200})
	require.Len(t, whole, 100)
	assert.Equal(t, Point[float64]{X: 0, Y: 0}, whole[0])
	assert.Equal(t, Point[float64]{X: 99, Y: 99 * 99}, whole[99])

	// Slice ending one before the last index still gets a tail anchor.
	tail := l.Query(Bounds{MinX: 0, MaxX: 97.5})
	require.Len(t, tail, 99+1)
	assert.Equal(t, Point[float64]{X: 99, Y: 98 * 98}, tail[len(tail)-1])
}

func TestLine_QueryPicksCoarserLevel(t *testing.T) {
	l := NewLine[Linear, float64]("a", WithPointBudget(10))
	l.Update(wave(100))
	require.Equal(t, 3, l.Levels()) // 100 -> 26 -> 8

	assert.Len(t, l.Query(Bounds{MinX: 0, MaxX: 99}), 8, "zoomed out: coarsest level")

	narrow := l.Query(Bounds{MinX: 40, MaxX: 45})
	// Level 0 slice [39, 47) fits the budget; anchors on both sides.
	require.Len(t, narrow, 8+2)
	assert.Equal(t, 0.0, narrow[0].X)
	assert.Equal(t, 39.0, narrow[1].X)
	assert.Equal(t, 99.0, narrow[len(narrow)-1].X)
}

func TestLine_QueryOutsideData(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	l.Update(wave(100))

	right := l.Query(Bounds{MinX: 500, MaxX: 600})
	require.Len(t, right, 2)
	assert.Equal(t, Point[float64]{X: 0, Y: wave(100)[99].Y}, right[0])
	assert.Equal(t, 99.0, right[1].X)

	inverted := l.Query(Bounds{MinX: 60, MaxX: 40})
	assert.Empty(t, inverted)
}

func TestLine_EmptySequence(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	assert.Equal(t, Rebuilt, l.Update(Samples[Linear, float64]{}))
	assert.Empty(t, l.Query(Bounds{MinX: 0, MaxX: 10}))
	_, ok := l.End()
	assert.False(t, ok)

	assert.Equal(t, Unchanged, l.Update(Samples[Linear, float64]{}))
	// An empty sequence has no first sample, so the first data rebuilds.
	assert.Equal(t, Rebuilt, l.Update(wave(3)))
	assert.Equal(t, 3, l.LevelLen(0))
}

func TestLine_QueryBeforeUpdate(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	assert.Nil(t, l.Query(Bounds{MaxX: 1}))
	_, ok := l.End()
	assert.False(t, ok)
}

func TestLine_ClearCachesIsIdempotent(t *testing.T) {
	l := NewLine[Linear, float64]("a")
	l.Update(wave(10_000))
	l.ClearCaches()
	l.ClearCaches()
	assert.Equal(t, 1, l.Levels())
	assert.Equal(t, 0, l.LevelLen(0))
	assert.Empty(t, l.Query(Bounds{MaxX: 10_000}))
	assert.Equal(t, Rebuilt, l.Update(wave(10_000)))
}

func TestLine_TimeAxis(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seq := Samples[Time, float32]{
		{X: At(start), Y: 1, Valid: true},
		{X: At(start.Add(1500 * time.Millisecond)), Y: 2, Valid: true},
		{X: At(start.Add(3 * time.Second)), Y: 3, Valid: true},
	}
	l := NewLine[Time, float32]("t")
	l.Update(seq)

	assert.Equal(t, []Point[float64]{{X: 0, Y: 1}, {X: 1.5, Y: 2}, {X: 3, Y: 3}},
		l.Query(Bounds{MinX: 0, MaxX: 3}))
	origin, ok := l.origin.Get()
	require.True(t, ok)
	assert.Equal(t, start, origin.Time)

	// Dropping the first sample rebuilds against a new origin.
	assert.Equal(t, Rebuilt, l.Update(seq[1:]))
	end, ok := l.End()
	require.True(t, ok)
	assert.Equal(t, 1.5, end)
}

func TestLine_LoggerReportsRebuilds(t *testing.T) {
	var buf logBuffer
	l := NewLine[Linear, float64]("volts", WithLogger(buf.logger()))
	l.Update(wave(10))
	assert.Empty(t, buf.String(), "the first build is not a rebuild")

	l.Update(wave(5))
	assert.Contains(t, buf.String(), `line "volts"`)
	assert.Contains(t, buf.String(), "10 -> 5")
}
