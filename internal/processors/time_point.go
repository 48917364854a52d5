package processors

import (
	"math"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
)

// timePointThresh finds where w_in crosses a_threshold, walking forward
// (walk_forward != 0) or backward from t_start. The crossing position is
// interpolated linearly between the two samples that straddle the
// threshold; a sample equal to the threshold is returned as is.
func timePointThresh() *registry.Kernel {
	return &registry.Kernel{
		Function:    "time_point_thresh",
		Description: "threshold crossing time with linear interpolation",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "a_threshold", Role: registry.In, Shape: registry.Scalar},
			{Name: "t_start", Role: registry.In, Shape: registry.Scalar, Coord: registry.Point},
			{Name: "walk_forward", Role: registry.In, Shape: registry.Scalar, Optional: true, Default: registry.Float(1)},
			{Name: "t_out", Role: registry.Out, Shape: registry.Scalar, Coord: registry.Point},
		},
		Run: func(c *registry.Call) error {
			c.Set("t_out", crossing(c.In("w_in"), c.Scalar("a_threshold"), c.Scalar("t_start"), c.Scalar("walk_forward") != 0))
			return nil
		},
	}
}

func crossing(w []float64, thr, start float64, forward bool) float64 {
	n := len(w)
	if math.IsNaN(thr) || math.IsNaN(start) || start < 0 || start > float64(n-1) {
		return buffer.NotAvailable
	}

	if forward {
		for i := int(math.Floor(start)); i < n; i++ {
			if w[i] == thr {
				return float64(i)
			}
			if i+1 < n && straddles(w[i], w[i+1], thr) {
				return float64(i) + (thr-w[i])/(w[i+1]-w[i])
			}
		}
		return buffer.NotAvailable
	}

	for i := int(math.Ceil(start)); i >= 0; i-- {
		if w[i] == thr {
			return float64(i)
		}
		if i > 0 && straddles(w[i-1], w[i], thr) {
			return float64(i-1) + (thr-w[i-1])/(w[i]-w[i-1])
		}
	}
	return buffer.NotAvailable
}

// straddles reports whether thr lies strictly between a and b.
func straddles(a, b, thr float64) bool {
	return (a < thr && thr < b) || (b < thr && thr < a)
}
