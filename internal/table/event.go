package table

import (
	"math"
)

// IntNotAvailable is the sentinel projected for integer outputs without a
// valid value.
const IntNotAvailable int64 = math.MinInt64

// Event is one digitized waveform with its metadata. The core never
// modifies an event.
type Event struct {
	// Index identifies the event in its source. The source sets it; it is
	// copied to the projected row and reported with contract errors.
	Index int64
	// Samples are the raw ADC values.
	Samples []int32
	// SamplePeriod is the time between samples in nanoseconds.
	SamplePeriod float64
	// Offset is the time of the first sample in nanoseconds. Time positions
	// are projected relative to the same origin.
	Offset       float64
	Timestamp    float64
	Channel      int
}

// Field is one projected output value.
type Field struct {
	Name string
	Unit string
	// Value holds float64 or int64 for scalars, []float64 or []int64 for arrays.
	Value any
	// Attrs are copied from the producing processor's attrs.
	Attrs map[string]string
}

// Row is the projection of one event, fields in requested output order.
type Row struct {
	Index  int64
	Fields []Field
}

// Get returns the field with the given name.
func (r *Row) Get(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Float returns a scalar field as float64, converting integer sentinels to NaN.
func (r *Row) Float(name string) (float64, bool) {
	f, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch v := f.Value.(type) {
	case float64:
		return v, true
	case int64:
		if v == IntNotAvailable {
			return math.NaN(), true
		}
		return float64(v), true
	default:
		return 0, false
	}
}

// Available reports whether a field holds a valid value. Arrays are
// available when at least one element is.
func (f Field) Available() bool {
	switch v := f.Value.(type) {
	case float64:
		return !math.IsNaN(v)
	case int64:
		return v != IntNotAvailable
	case []float64:
		for _, x := range v {
			if !math.IsNaN(x) {
				return true
			}
		}
		return false
	case []int64:
		for _, x := range v {
			if x != IntNotAvailable {
				return true
			}
		}
		return false
	default:
		return false
	}
}
