package processors

import (
	"fmt"
	"math"

	"github.com/vk/dspchain/internal/registry"
)

// histogram bins the finite samples of w_in into len(weights) equal-width
// bins spanning their range. Both outputs must be declared explicitly and
// borders must hold one element more than weights.
func histogram() *registry.Kernel {
	return &registry.Kernel{
		Function:    "histogram",
		Description: "equal-width histogram of the waveform values",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "weights_out", Role: registry.Out, Shape: registry.Array},
			{Name: "borders_out", Role: registry.Out, Shape: registry.Array, UnitFrom: "w_in"},
		},
		Check: func(l registry.Lengths) error {
			if l["borders_out"] != l["weights_out"]+1 {
				return fmt.Errorf("borders_out must have one element more than weights_out, got %d and %d", l["borders_out"], l["weights_out"])
			}
			return nil
		},
		Run: func(c *registry.Call) error {
			in := c.In("w_in")
			weights, borders := c.Out("weights_out"), c.Out("borders_out")
			if len(borders) != len(weights)+1 {
				return fmt.Errorf("borders_out has %d elements for %d bins", len(borders), len(weights))
			}

			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range in {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			if lo > hi {
				fillNA(weights)
				fillNA(borders)
				return nil
			}
			if lo == hi {
				lo, hi = lo-0.5, hi+0.5
			}

			m := len(weights)
			width := (hi - lo) / float64(m)
			for i := range borders {
				borders[i] = lo + float64(i)*width
			}
			borders[m] = hi
			for i := range weights {
				weights[i] = 0
			}
			for _, v := range in {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				b := int((v - lo) / width)
				if b >= m {
					b = m - 1
				}
				weights[b]++
			}
			return nil
		},
	}
}
