package processors

import (
	"github.com/vk/dspchain/internal/registry"
)

// trapFilter is the normalized trapezoidal filter: the mean of the last
// rise samples minus the mean of the rise samples ending rise+flat samples
// earlier. Samples before index 0 count as zero.
func trapFilter() *registry.Kernel {
	return &registry.Kernel{
		Function:    "trap_filter",
		Description: "symmetric normalized trapezoidal filter",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "rise", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "flat", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			rise, ok1 := samples(c.Scalar("rise"))
			flat, ok2 := samples(c.Scalar("flat"))
			runTrap(c, rise, flat, rise, ok1 && ok2)
			return nil
		},
	}
}

// asymTrapFilter uses separate rise and fall lengths:
// out[n] = S(n,rise)/rise - S(n-rise-flat,fall)/fall.
func asymTrapFilter() *registry.Kernel {
	return &registry.Kernel{
		Function:    "asym_trap_filter",
		Description: "asymmetric normalized trapezoidal filter",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "rise", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "flat", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "fall", Role: registry.In, Shape: registry.Scalar, Coord: registry.Span},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			rise, ok1 := samples(c.Scalar("rise"))
			flat, ok2 := samples(c.Scalar("flat"))
			fall, ok3 := samples(c.Scalar("fall"))
			runTrap(c, rise, flat, fall, ok1 && ok2 && ok3)
			return nil
		},
	}
}

func runTrap(c *registry.Call, rise, flat, fall int, ok bool) {
	in, out := c.In("w_in"), c.Out("w_out")
	if !ok || rise < 1 || fall < 1 || flat < 0 {
		fillNA(out)
		return
	}

	// prefix[k] is the sum of in[0:k].
	prefix, _ := c.State.([]float64)
	if len(prefix) != len(in)+1 {
		prefix = make([]float64, len(in)+1)
		c.State = prefix
	}
	for i, v := range in {
		prefix[i+1] = prefix[i] + v
	}
	window := func(end, length int) float64 {
		if end < 0 {
			return 0
		}
		start := end - length + 1
		if start < 0 {
			start = 0
		}
		return prefix[end+1] - prefix[start]
	}

	r, f := float64(rise), float64(fall)
	for n := range out {
		out[n] = window(n, rise)/r - window(n-rise-flat, fall)/f
	}
}
