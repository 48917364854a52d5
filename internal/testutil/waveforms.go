package testutil

import (
	"math"

	"github.com/vk/dspchain/internal/table"
)

// Pulse describes a synthetic detector pulse: a flat baseline followed by
// an instantaneous step of Amplitude at Start that decays exponentially
// with time constant Tau (in samples). A zero Tau means no decay.
type Pulse struct {
	Length    int
	Baseline  float64
	Amplitude float64
	Start     int
	Tau       float64
}

// Samples renders the pulse as rounded ADC values.
func (p Pulse) Samples() []int32 {
	out := make([]int32, p.Length)
	for i := range out {
		v := p.Baseline
		if i >= p.Start {
			decay := 1.0
			if p.Tau > 0 {
				decay = math.Exp(-float64(i-p.Start) / p.Tau)
			}
			v += p.Amplitude * decay
		}
		out[i] = int32(math.Round(v))
	}
	return out
}

// Event wraps the pulse in an event with the given index and period (ns).
func (p Pulse) Event(index int64, period float64) *table.Event {
	return &table.Event{
		Index:        index,
		Samples:      p.Samples(),
		SamplePeriod: period,
		Timestamp:    float64(index) * 1e-3,
		Channel:      int(index % 4),
	}
}

// ReferencePulse matches ReferenceModel: 2000 samples, baseline 1000,
// amplitude 500 starting at sample 500, decaying with a 10 ms time constant
// at a 100 ns period.
func ReferencePulse() Pulse {
	return Pulse{Length: 2000, Baseline: 1000, Amplitude: 500, Start: 500, Tau: 1e5}
}

// Events returns n reference pulses whose amplitude grows with the index.
func Events(n int, period float64) []*table.Event {
	events := make([]*table.Event, n)
	for i := range events {
		p := ReferencePulse()
		p.Amplitude += float64(10 * i)
		events[i] = p.Event(int64(i), period)
	}
	return events
}

// baselineNoise is a fixed zero-mean pattern added to the baseline of
// NoisyStepEvent. Its RMS is sqrt(1.5).
var baselineNoise = []int32{0, 2, -1, 1, -2, 1, -1, 0}

// NoisyStepEvent returns 1000 samples: 500 at a baseline of 1000 carrying
// baselineNoise, then 500 held at 1500.
func NoisyStepEvent(index int64, period float64) *table.Event {
	samples := make([]int32, 1000)
	for i := range samples {
		if i < 500 {
			samples[i] = 1000 + baselineNoise[i%len(baselineNoise)]
		} else {
			samples[i] = 1500
		}
	}
	return &table.Event{Index: index, Samples: samples, SamplePeriod: period}
}
