package builder

import (
	"fmt"
	"maps"
)

// Options control a build.
type Options struct {
	// WaveformLength is the number of samples of every event.
	WaveformLength int
	// SamplePeriod is the period (ns) used to validate period-dependent
	// arguments at build time. Zero defers them to the first event.
	SamplePeriod float64
	// Params override the processors' defaults for db.<name> references.
	Params map[string]float64
}

func (o Options) validate() error {
	if o.WaveformLength <= 0 {
		return fmt.Errorf("waveform length must be positive, got %d", o.WaveformLength)
	}
	if o.SamplePeriod < 0 {
		return fmt.Errorf("sample period cannot be negative, got %g", o.SamplePeriod)
	}
	return nil
}

// params merges a processor's defaults with the build overrides.
func (o Options) params(defaults map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(defaults)+len(o.Params))
	maps.Copy(out, defaults)
	maps.Copy(out, o.Params)
	return out
}
