package sample

import (
	"log"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/source"
)

// Sample is a processed multi-channel sample in physical units. An
// invalid value is a gap.
type Sample struct {
	Timestamp time.Time
	Values    []null.Float64
}

// Converter is a function type that converts RawSample channel to Sample channel.
type Converter func(in <-chan source.RawSample) <-chan Sample

// Stage transforms a stream of samples.
type Stage func(in <-chan Sample) <-chan Sample

// NewConverter creates a converter function that scales raw values per
// channel. Channels without a configuration pass through unchanged.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan source.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				sample := convertSample(raw, cfg.Channels)

				select {
				case out <- sample:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Pipeline returns the converter for cfg: scaling followed by averaging
// when measurement.average_samples is above 1.
func Pipeline(cfg *config.Config, bufSize int) Converter {
	convert := NewConverter(cfg, bufSize)
	if cfg.Measurement.AverageSamples <= 1 {
		return convert
	}
	average := NewAveraging(cfg.Measurement.AverageSamples, bufSize)
	return func(in <-chan source.RawSample) <-chan Sample {
		return average(convert(in))
	}
}

// convertSample applies value*scale + offset to every valid value.
func convertSample(raw source.RawSample, channels []config.ChannelConfig) Sample {
	values := make([]null.Float64, len(raw.Values))
	for i, v := range raw.Values {
		if !v.Valid {
			continue
		}
		if i < len(channels) {
			values[i] = null.Float64From(scale(v.Float64, channels[i]))
		} else {
			values[i] = v
		}
	}
	return Sample{Timestamp: raw.Timestamp, Values: values}
}

func scale(v float64, ch config.ChannelConfig) float64 {
	s := ch.Scale
	if s == 0 {
		s = 1
	}
	return v*s + ch.Offset
}
