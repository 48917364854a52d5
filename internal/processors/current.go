package processors

import (
	"github.com/vk/dspchain/internal/registry"
)

// avgCurrent is the first difference of the charge waveform; the output
// has one element fewer than the input.
func avgCurrent() *registry.Kernel {
	return &registry.Kernel{
		Function:    "avg_current",
		Description: "first difference of the waveform",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.Offset("w_in", -1), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			in, out := c.In("w_in"), c.Out("w_out")
			for i := range out {
				out[i] = in[i+1] - in[i]
			}
			return nil
		},
	}
}

func cumsum() *registry.Kernel {
	return &registry.Kernel{
		Function:    "cumsum",
		Description: "running sum of the waveform",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			in, out := c.In("w_in"), c.Out("w_out")
			var sum float64
			for i, v := range in {
				sum += v
				out[i] = sum
			}
			return nil
		},
	}
}
