package sample

import (
	"log"
	"time"

	"github.com/volatiletech/null/v8"
)

// NewAveraging creates a stage that replaces every value with the mean of
// the valid values of its channel among the last windowSize samples.
// Gaps stay gaps and do not count toward the mean. One sample is emitted
// per input sample.
func NewAveraging(windowSize int, bufSize int) Stage {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			w := newWindow(windowSize)
			for s := range in {
				avg := w.push(s)
				select {
				case out <- avg:
				case <-time.After(time.Second):
					log.Printf("Averaging output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// window keeps a running per-channel sum over the last size samples.
type window struct {
	size    int
	history []Sample
	sums    []float64
	counts  []int
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) push(s Sample) Sample {
	if n := len(s.Values); n > len(w.sums) {
		w.sums = append(w.sums, make([]float64, n-len(w.sums))...)
		w.counts = append(w.counts, make([]int, n-len(w.counts))...)
	}

	w.history = append(w.history, s)
	w.add(s, 1)
	if len(w.history) > w.size {
		w.add(w.history[0], -1)
		w.history = w.history[1:] // Remove oldest
	}

	values := make([]null.Float64, len(s.Values))
	for i, v := range s.Values {
		if v.Valid && w.counts[i] > 0 {
			values[i] = null.Float64From(w.sums[i] / float64(w.counts[i]))
		}
	}
	return Sample{Timestamp: s.Timestamp, Values: values}
}

func (w *window) add(s Sample, sign int) {
	for i, v := range s.Values {
		if v.Valid {
			w.sums[i] += float64(sign) * v.Float64
			w.counts[i] += sign
			if w.counts[i] == 0 {
				w.sums[i] = 0
			}
		}
	}
}
