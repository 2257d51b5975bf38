// Package intensity resolves time-varying environmental intensity factors
// (carbon, water, land) for footprint windows.
package intensity

import (
	"fmt"
	"time"
)

// Source is a tagged variant: either a constant factor or a table keyed by
// calendar time. The variant is fixed at configuration-load time and never
// re-inspected per window.
type Source struct {
	scalar float64
	table  map[string]float64
}

// Scalar returns a constant intensity source.
func Scalar(value float64) Source {
	return Source{scalar: value}
}

// Table returns a time-keyed intensity source. Keys follow the
// `MM/DD-HH:MM` convention produced by Key.
func Table(values map[string]float64) Source {
	return Source{table: values}
}

// IsScalar reports whether the source is a constant factor.
func (s Source) IsScalar() bool {
	return s.table == nil
}

// Value returns the intensity effective for the window starting at the given
// epoch-ms timestamp. A table miss is a hard error: the table is expected to
// correspond exactly to the binning granularity, and tolerating misses would
// mask a width mismatch between trace and intensity data.
func (s Source) Value(windowStart int64) (float64, error) {
	if s.table == nil {
		return s.scalar, nil
	}

	key := Key(windowStart)
	value, ok := s.table[key]
	if !ok {
		return 0, fmt.Errorf("no intensity value for window key %q", key)
	}
	return value, nil
}

// Key derives the table lookup key for a window start timestamp (epoch ms),
// formatted as `MM/DD-HH:MM` in UTC.
func Key(windowStart int64) string {
	ts := time.UnixMilli(windowStart).UTC()
	return fmt.Sprintf("%02d/%02d-%02d:%02d", ts.Month(), ts.Day(), ts.Hour(), ts.Minute())
}
