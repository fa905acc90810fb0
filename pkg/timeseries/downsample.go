package timeseries

import (
	"fmt"
	"strings"
)

// Point is one entry of a cache level: an X offset and a Y value.
type Point[Y Float] struct {
	X float64
	Y Y
}

// Method selects how a bucket of a cache level is reduced to the two
// points that represent it on the next level.
type Method int

const (
	// MinMax keeps the bucket's minimum and maximum in their original
	// order, so spikes survive at every zoom level.
	MinMax Method = iota
	// None is reserved. It keeps the first and last sample of the bucket.
	None
	// Mean is reserved. It keeps the first and last sample of the bucket.
	Mean
)

var methodNames = map[Method]string{
	MinMax: "minmax",
	None:   "none",
	Mean:   "mean",
}

// String returns the configuration name of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a configuration name ("minmax", "none", "mean").
// An empty name selects MinMax.
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "min-max" {
		return MinMax, nil
	}
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return MinMax, fmt.Errorf("unknown downsampling method %q", name)
}

// Downsample reduces a non-empty bucket to exactly two points. It panics
// on an empty bucket.
func Downsample[Y Float](m Method, bucket []Point[Y]) [2]Point[Y] {
	switch m {
	case MinMax:
		minI, maxI := 0, 0
		for i := 1; i < len(bucket); i++ {
			if compareY(bucket[i].Y, bucket[minI].Y) < 0 {
				minI = i
			}
			if compareY(bucket[i].Y, bucket[maxI].Y) > 0 {
				maxI = i
			}
		}
		if minI < maxI {
			return [2]Point[Y]{bucket[minI], bucket[maxI]}
		}
		return [2]Point[Y]{bucket[maxI], bucket[minI]}
	default:
		// TODO: define the mean aggregation (per-bucket average at the
		// bucket's mid X) once its consumers exist.
		return [2]Point[Y]{bucket[0], bucket[len(bucket)-1]}
	}
}
