package units

import (
	"fmt"
	"sort"
)

// Dimension classifies a unit for conversion purposes.
type Dimension int

const (
	Dimensionless Dimension = iota
	Time
	Frequency
)

// Unit is a recognized unit identifier. Scale is expressed in nanoseconds
// for time units and in cycles per nanosecond for frequency units.
type Unit struct {
	Name      string
	Dimension Dimension
	Scale     float64
}

var table = map[string]Unit{
	"ps":      {Name: "ps", Dimension: Time, Scale: 1e-3},
	"ns":      {Name: "ns", Dimension: Time, Scale: 1},
	"us":      {Name: "us", Dimension: Time, Scale: 1e3},
	"ms":      {Name: "ms", Dimension: Time, Scale: 1e6},
	"s":       {Name: "s", Dimension: Time, Scale: 1e9},
	"Hz":      {Name: "Hz", Dimension: Frequency, Scale: 1e-9},
	"kHz":     {Name: "kHz", Dimension: Frequency, Scale: 1e-6},
	"MHz":     {Name: "MHz", Dimension: Frequency, Scale: 1e-3},
	"GHz":     {Name: "GHz", Dimension: Frequency, Scale: 1},
	"sample":  {Name: "sample", Dimension: Dimensionless, Scale: 1},
	"samples": {Name: "samples", Dimension: Dimensionless, Scale: 1},
}

// Lookup returns the unit registered under name.
func Lookup(name string) (Unit, bool) {
	u, ok := table[name]
	return u, ok
}

// Names lists every recognized unit identifier in sorted order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTime reports whether name is a recognized time unit.
func IsTime(name string) bool {
	u, ok := table[name]
	return ok && u.Dimension == Time
}

// PeriodDependent reports whether converting the unit requires a sample period.
func (u Unit) PeriodDependent() bool {
	return u.Dimension != Dimensionless
}

// InSamples returns the value of one u expressed in the sample domain for
// the given sample period in nanoseconds.
func (u Unit) InSamples(period float64) (float64, error) {
	if !u.PeriodDependent() {
		return u.Scale, nil
	}
	if !(period > 0) {
		return 0, fmt.Errorf("unit %q needs a positive sample period, got %g", u.Name, period)
	}
	if u.Dimension == Time {
		return u.Scale / period, nil
	}
	return u.Scale * period, nil
}

// FromSamples converts a sample-domain value into unit. Values tagged with
// a non-time unit are returned unchanged.
func FromSamples(v, period float64, unit string) float64 {
	u, ok := table[unit]
	if !ok || u.Dimension != Time {
		return v
	}
	return v * period / u.Scale
}

// PositionFromSamples converts a sample position into unit, counting time
// from a waveform whose first sample was taken at offset ns.
func PositionFromSamples(v, period, offset float64, unit string) float64 {
	u, ok := table[unit]
	if !ok || u.Dimension != Time {
		return v
	}
	return (v*period + offset) / u.Scale
}
