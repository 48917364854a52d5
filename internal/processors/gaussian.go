package processors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vk/dspchain/internal/registry"
)

// Boundary modes of gaussian_filter1d.
const (
	boundaryReflect  = "reflect"
	boundaryNearest  = "nearest"
	boundaryConstant = "constant"
)

// gaussianFilter1d convolves the waveform with a normalized Gaussian of
// width sigma (in samples), truncated at truncate*sigma.
func gaussianFilter1d() *registry.Kernel {
	return &registry.Kernel{
		Function:    "gaussian_filter1d",
		Description: "1D Gaussian smoothing",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "w_out", Role: registry.Out, Shape: registry.Array, Length: registry.SameAs("w_in"), UnitFrom: "w_in"},
		},
		Kwargs: []registry.Kwarg{
			{Name: "mode", Default: boundaryReflect, Choices: []string{boundaryReflect, boundaryNearest, boundaryConstant}},
		},
		InitParams: []registry.InitParam{
			{Name: "sigma", Coord: registry.Span},
			{Name: "truncate", Default: registry.Float(4)},
		},
		Init: func(init map[string]float64, _ registry.Lengths) (any, error) {
			return gaussianWeights(init["sigma"], init["truncate"])
		},
		Run: func(c *registry.Call) error {
			weights, ok := c.State.([]float64)
			if !ok {
				return fmt.Errorf("gaussian weights not initialized")
			}
			convolve(c.In("w_in"), c.Out("w_out"), weights, c.Kwarg("mode"))
			return nil
		},
	}
}

// gaussianWeights returns 2r+1 normalized weights, r = int(truncate*sigma+0.5).
func gaussianWeights(sigma, truncate float64) ([]float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("sigma must be positive, got %g", sigma)
	}
	if !(truncate > 0) || math.IsInf(truncate, 0) {
		return nil, fmt.Errorf("truncate must be positive, got %g", truncate)
	}
	r := int(truncate*sigma + 0.5)
	w := make([]float64, 2*r+1)
	for k := -r; k <= r; k++ {
		x := float64(k) / sigma
		w[k+r] = math.Exp(-0.5 * x * x)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w, nil
}

func convolve(in, out, weights []float64, mode string) {
	n := len(in)
	r := len(weights) / 2
	for i := range out {
		var acc float64
		for k := -r; k <= r; k++ {
			j := i + k
			var x float64
			if j >= 0 && j < n {
				x = in[j]
			} else {
				switch mode {
				case boundaryNearest:
					x = in[clamp(j, n)]
				case boundaryConstant:
					x = 0
				default:
					x = in[reflect(j, n)]
				}
			}
			acc += weights[k+r] * x
		}
		out[i] = acc
	}
}

func clamp(j, n int) int {
	if j < 0 {
		return 0
	}
	if j >= n {
		return n - 1
	}
	return j
}

// reflect maps j into [0,n) by half-sample symmetric extension
// (d c b a | a b c d | d c b a).
func reflect(j, n int) int {
	period := 2 * n
	j %= period
	if j < 0 {
		j += period
	}
	if j >= n {
		j = period - 1 - j
	}
	return j
}
