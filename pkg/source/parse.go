package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// parseLine parses one line of the wire format into a RawSample.
// Format: unix_micros,value0,value1,...
// Example: 1234567890123,0.25,,nan,1.5
// An empty field or nan is a gap.
func parseLine(line string) (RawSample, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return RawSample{}, fmt.Errorf("invalid line format: expected a timestamp and at least one value, got %d fields", len(parts))
	}

	// Parse timestamp (unix microseconds)
	timestampMicros, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return RawSample{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.UnixMicro(timestampMicros)

	values := make([]null.Float64, len(parts)-1)
	for i, field := range parts[1:] {
		field = strings.TrimSpace(field)
		if field == "" || strings.EqualFold(field, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return RawSample{}, fmt.Errorf("invalid value %d: %w", i, err)
		}
		values[i] = null.Float64From(v)
	}

	return RawSample{Timestamp: timestamp, Values: values}, nil
}

// readLines parses lines from r and hands them to emit until r is
// exhausted, ctx is cancelled or emit returns false. Malformed lines are
// logged and skipped.
func readLines(ctx context.Context, r io.Reader, emit func(RawSample) bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF or error)
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading samples: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			sample, err := parseLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			if !emit(sample) {
				return
			}
		}
	}
}

// dropWhenFull sends to out without blocking; samples that do not fit are
// dropped.
func dropWhenFull(ctx context.Context, out chan<- RawSample) func(RawSample) bool {
	return func(sample RawSample) bool {
		select {
		case out <- sample:
		case <-ctx.Done():
			return false
		default:
			// Channel full, log and skip
			log.Printf("Samples channel full, dropping sample")
		}
		return true
	}
}
