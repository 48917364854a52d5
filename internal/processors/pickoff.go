package processors

import (
	"math"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
)

// Pickoff modes.
const (
	modeNearest = "n"
	modeFloor   = "f"
	modeCeil    = "c"
	modeLinear  = "l"
	modeInterp  = "i"
	modeHermite = "h"
)

// fixedTimePickoff reads w_in at the fractional index t_in.
func fixedTimePickoff() *registry.Kernel {
	return &registry.Kernel{
		Function:    "fixed_time_pickoff",
		Description: "waveform value at a fixed time with selectable interpolation",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "t_in", Role: registry.In, Shape: registry.Scalar, Coord: registry.Point},
			{
				Name: "mode", Role: registry.In, Shape: registry.Option, Optional: true,
				Choices:       []string{modeNearest, modeFloor, modeCeil, modeLinear, modeInterp, modeHermite},
				DefaultChoice: modeLinear,
			},
			{Name: "a_out", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			c.Set("a_out", pickoff(c.In("w_in"), c.Scalar("t_in"), c.Option("mode")))
			return nil
		},
	}
}

func pickoff(w []float64, t float64, mode string) float64 {
	n := len(w)
	if math.IsNaN(t) || t < 0 || t > float64(n-1) {
		return buffer.NotAvailable
	}

	i := int(math.Floor(t))
	frac := t - float64(i)
	switch mode {
	case modeNearest:
		return w[int(math.Round(t))]
	case modeFloor:
		return w[i]
	case modeCeil:
		return w[int(math.Ceil(t))]
	case modeHermite:
		if frac == 0 {
			return w[i]
		}
		return hermite(w, i, frac)
	default:
		if frac == 0 {
			return w[i]
		}
		return w[i] + frac*(w[i+1]-w[i])
	}
}

// hermite evaluates the cubic Hermite spline between w[i] and w[i+1] with
// central-difference tangents, one-sided at the ends.
func hermite(w []float64, i int, t float64) float64 {
	n := len(w)
	p0, p1 := w[i], w[i+1]
	m0 := p1 - p0
	if i > 0 {
		m0 = (p1 - w[i-1]) / 2
	}
	m1 := p1 - p0
	if i+2 < n {
		m1 = (w[i+2] - p0) / 2
	}

	t2, t3 := t*t, t*t*t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*p0 + h10*m0 + h01*p1 + h11*m1
}
