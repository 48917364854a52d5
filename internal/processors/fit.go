package processors

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
)

// linearSlopeFit fits y = intercept + slope*i over the whole input by
// ordinary least squares. The baseline is the fitted intercept and stdev
// is the RMS of the residuals.
func linearSlopeFit() *registry.Kernel {
	return &registry.Kernel{
		Function:    "linear_slope_fit",
		Description: "least-squares line fit returning baseline, residual RMS, slope and intercept",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "baseline", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
			{Name: "stdev", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
			{Name: "slope", Role: registry.Out, Shape: registry.Scalar},
			{Name: "intercept", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
		},
		Run: runLinearSlopeFit,
	}
}

func runLinearSlopeFit(c *registry.Call) error {
	y := c.In("w_in")
	if len(y) < 2 || floats.HasNaN(y) {
		for _, name := range []string{"baseline", "stdev", "slope", "intercept"} {
			c.Set(name, buffer.NotAvailable)
		}
		return nil
	}

	x, ok := c.State.([]float64)
	if !ok || len(x) != len(y) {
		x = make([]float64, len(y))
		floats.Span(x, 0, float64(len(y)-1))
		c.State = x
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)

	var ss float64
	for i, v := range y {
		r := v - (intercept + slope*x[i])
		ss += r * r
	}
	c.Set("baseline", intercept)
	c.Set("stdev", math.Sqrt(ss/float64(len(y))))
	c.Set("slope", slope)
	c.Set("intercept", intercept)
	return nil
}

func blSubtract() *registry.Kernel {
	return &registry.Kernel{
		Function:    "bl_subtract",
		Description: "subtract a constant baseline",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "a_baseline", Role: registry.In, Shape: registry.Scalar},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			in, out := c.In("w_in"), c.Out("w_out")
			bl := c.Scalar("a_baseline")
			for i, v := range in {
				out[i] = v - bl
			}
			return nil
		},
	}
}
