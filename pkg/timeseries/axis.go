package timeseries

import (
	"cmp"
	"time"

	"golang.org/x/exp/constraints"
)

// Float is the constraint for Y values. NaN sorts below every other
// value and equal to itself (see compareY).
type Float interface {
	constraints.Float
}

// Origin holds the reference X value that offsets are computed from.
// It is fixed by the first value translated through it and stays fixed
// until Reset.
type Origin[X any] struct {
	value X
	set   bool
}

// Fix stores x as the origin if none is set yet and returns the origin.
func (o *Origin[X]) Fix(x X) X {
	if !o.set {
		o.value = x
		o.set = true
	}
	return o.value
}

// Get returns the origin and whether it has been fixed.
func (o *Origin[X]) Get() (X, bool) {
	return o.value, o.set
}

// Reset forgets the origin.
func (o *Origin[X]) Reset() {
	var zero X
	o.value = zero
	o.set = false
}

// XValue is the capability required from X positions: equality for
// change detection and translation to a float64 offset against an
// origin owned by the caller.
type XValue[X any] interface {
	comparable
	Offset(origin *Origin[X]) float64
}

// Linear is a plain numeric X position. Offsets are the value itself so
// query bounds and End are expressed in the caller's own units.
type Linear float64

// Offset implements XValue.
func (x Linear) Offset(origin *Origin[Linear]) float64 {
	origin.Fix(x)
	return float64(x)
}

// Time is a wall-clock X position. Offsets are seconds since the first
// Time translated through the origin.
type Time struct {
	time.Time
}

// At wraps t as a Time position.
func At(t time.Time) Time {
	return Time{Time: t}
}

// Offset implements XValue.
func (x Time) Offset(origin *Origin[Time]) float64 {
	o := origin.Fix(x)
	return x.Sub(o.Time).Seconds()
}

// compareY is a total order over Y values.
func compareY[Y Float](a, b Y) int {
	return cmp.Compare(a, b)
}
