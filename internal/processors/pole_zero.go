package processors

import (
	"math"

	"github.com/vk/dspchain/internal/registry"
)

// poleZero removes a single exponential decay with time constant t_tau
// (in samples): y[0]=x[0], y[n]=y[n-1]+x[n]-exp(-1/tau)*x[n-1].
func poleZero() *registry.Kernel {
	return &registry.Kernel{
		Function:    "pole_zero",
		Description: "pole-zero cancellation of an exponential decay",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "t_tau", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			in, out := c.In("w_in"), c.Out("w_out")
			tau := c.Scalar("t_tau")
			if !(tau > 0) || math.IsInf(tau, 0) {
				fillNA(out)
				return nil
			}
			k := math.Exp(-1 / tau)
			out[0] = in[0]
			for n := 1; n < len(in); n++ {
				out[n] = out[n-1] + in[n] - k*in[n-1]
			}
			return nil
		},
	}
}
