package timeseries

import "log"

const (
	// DefaultBucketSize is the number of level k-1 points reduced into the
	// two points of level k. Min/max keeps 2 of 8, a factor of 4 per level.
	DefaultBucketSize = 8
	// DefaultPointBudget is the largest slice handed to a surface when a
	// coarser level is available.
	DefaultPointBudget = 4000
	// DefaultMaxLevels is the number of levels above level 0.
	DefaultMaxLevels = 5
)

type settings struct {
	method     Method
	budget     int
	bucketSize int
	maxLevels  int
	logger     *log.Logger
}

func defaultSettings() settings {
	return settings{
		method:     MinMax,
		budget:     DefaultPointBudget,
		bucketSize: DefaultBucketSize,
		maxLevels:  DefaultMaxLevels,
	}
}

// Option configures a Memory or a Line.
type Option func(*settings)

// WithMethod sets the downsampling method.
func WithMethod(m Method) Option {
	return func(s *settings) { s.method = m }
}

// WithPointBudget sets the point budget. Values below 1 are ignored.
func WithPointBudget(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.budget = n
		}
	}
}

// WithBucketSize sets the bucket size. It must be even and at least 4 so
// that every level is coarser than its parent and a recomputed tail pair
// never straddles two buckets; other values are ignored.
func WithBucketSize(n int) Option {
	return func(s *settings) {
		if n >= 4 && n%2 == 0 {
			s.bucketSize = n
		}
	}
}

// WithMaxLevels sets how many levels may be built above level 0.
// Negative values are ignored; 0 keeps level 0 only.
func WithMaxLevels(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxLevels = n
		}
	}
}

// WithLogger logs cache rebuilds to l.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
