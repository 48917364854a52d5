package processors

import (
	"gonum.org/v1/gonum/floats"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
)

// minMax reports the positions and values of the waveform extrema. Ties
// resolve to the first occurrence.
func minMax() *registry.Kernel {
	return &registry.Kernel{
		Function:    "min_max",
		Description: "waveform minimum and maximum with their positions",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "t_min", Role: registry.Out, Shape: registry.Scalar, Kind: buffer.Int, Coord: registry.Point},
			{Name: "t_max", Role: registry.Out, Shape: registry.Scalar, Kind: buffer.Int, Coord: registry.Point},
			{Name: "a_min", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
			{Name: "a_max", Role: registry.Out, Shape: registry.Scalar, UnitFrom: "w_in"},
		},
		Run: func(c *registry.Call) error {
			w := c.In("w_in")
			if len(w) == 0 || floats.HasNaN(w) {
				for _, name := range []string{"t_min", "t_max", "a_min", "a_max"} {
					c.Set(name, buffer.NotAvailable)
				}
				return nil
			}
			lo, hi := floats.MinIdx(w), floats.MaxIdx(w)
			c.Set("t_min", float64(lo))
			c.Set("t_max", float64(hi))
			c.Set("a_min", w[lo])
			c.Set("a_max", w[hi])
			return nil
		},
	}
}
