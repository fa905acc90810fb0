package timeseries

// Sequence is a finite, X-ordered series of samples with a known length.
// At must be cheap for any index: Update peeks At(0) and Len() before
// deciding how much of the sequence to read.
type Sequence[X any, Y Float] interface {
	Len() int
	// At returns the i-th sample. ok is false for a gap.
	At(i int) (x X, y Y, ok bool)
}

// Sample is one element of a Sequence. Valid is false for a gap.
type Sample[X any, Y Float] struct {
	X     X
	Y     Y
	Valid bool
}

// Samples is a Sequence backed by a slice.
type Samples[X any, Y Float] []Sample[X, Y]

// Len implements Sequence.
func (s Samples[X, Y]) Len() int { return len(s) }

// At implements Sequence.
func (s Samples[X, Y]) At(i int) (X, Y, bool) {
	return s[i].X, s[i].Y, s[i].Valid
}

// Points builds a gap-free Samples from parallel X and Y slices. The
// result is as long as the shorter of the two.
func Points[X any, Y Float](xs []X, ys []Y) Samples[X, Y] {
	n := min(len(xs), len(ys))
	out := make(Samples[X, Y], n)
	for i := range n {
		out[i] = Sample[X, Y]{X: xs[i], Y: ys[i], Valid: true}
	}
	return out
}

// Func adapts an indexing function to a Sequence.
type Func[X any, Y Float] struct {
	N  int
	Fn func(i int) (X, Y, bool)
}

// Len implements Sequence.
func (f Func[X, Y]) Len() int { return f.N }

// At implements Sequence.
func (f Func[X, Y]) At(i int) (X, Y, bool) { return f.Fn(i) }
