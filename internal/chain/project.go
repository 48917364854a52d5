package chain

import (
	"math"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/table"
	"github.com/vk/dspchain/internal/units"
)

// Project copies the requested outputs of the last executed event into a
// row. Time-unit outputs hold sample counts internally and are converted
// to their unit with the event's period; time positions also add the event
// offset. Integer outputs become int64.
func (c *Chain) Project(ev *table.Event) *table.Row {
	row := &table.Row{Index: ev.Index, Fields: make([]table.Field, len(c.plan.Outputs))}
	for i, o := range c.plan.Outputs {
		c.arena.Gather(o.Var)
		buf := c.arena.Buffer(o.Var)
		conv := converter(o.Var, ev)

		var value any
		switch {
		case o.Var.Kind == buffer.Int && o.Var.IsScalar():
			value = toInt(conv(buf[0]))
		case o.Var.Kind == buffer.Int:
			out := make([]int64, len(buf))
			for j, x := range buf {
				out[j] = toInt(conv(x))
			}
			value = out
		case o.Var.IsScalar():
			value = conv(buf[0])
		default:
			out := make([]float64, len(buf))
			for j, x := range buf {
				out[j] = conv(x)
			}
			value = out
		}
		row.Fields[i] = table.Field{Name: o.Name, Unit: o.Var.Unit, Value: value, Attrs: o.Attrs}
	}
	return row
}

func converter(v *buffer.Variable, ev *table.Event) func(float64) float64 {
	unit := v.Unit
	if !units.IsTime(unit) {
		return func(x float64) float64 { return x }
	}
	if v.Position {
		return func(x float64) float64 { return units.PositionFromSamples(x, ev.SamplePeriod, ev.Offset, unit) }
	}
	return func(x float64) float64 { return units.FromSamples(x, ev.SamplePeriod, unit) }
}

func toInt(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return table.IntNotAvailable
	}
	return int64(math.Round(x))
}
