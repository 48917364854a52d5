package chain

import (
	"fmt"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
	"github.com/vk/dspchain/internal/units"
)

// Variable names bound from the event.
const (
	InputWaveform  = "waveform"
	InputTimestamp = "timestamp"
	InputChannel   = "channel"
)

// Plan is the compiled, immutable form of a chain.
type Plan struct {
	Table *buffer.Table
	// Steps are the scheduled steps in execution order.
	Steps   []*Step
	Outputs []Output
	// Constants are every constant bound by any step, indexed by Constant.ID.
	Constants []*Constant

	Waveform  *buffer.Variable
	Timestamp *buffer.Variable
	Channel   *buffer.Variable

	WaveformLength int
	// DefaultPeriod is the sample period (ns) used to evaluate
	// period-dependent constants before the first event.
	DefaultPeriod float64
}

// Step is one scheduled kernel invocation.
type Step struct {
	Name     string
	Kernel   *registry.Kernel
	Bindings []Binding
	Kwargs   map[string]string
	Init     []InitArg
	Lengths  registry.Lengths
}

// Binding attaches one kernel parameter to a variable, a constant or an
// option string. A binding with none of them leaves the parameter unbound.
type Binding struct {
	Param  string
	Role   registry.Role
	Var    *buffer.Variable
	Const  *Constant
	Option string
	// HasOption distinguishes an explicit empty option from an omitted one.
	HasOption bool
	// Coord and Grid describe how a scalar time variable maps onto the
	// step's grid.
	Coord registry.Coord
	Grid  buffer.Grid
}

// remapped reports whether the binding is a scalar time variable that must
// be converted between the waveform grid and the step's grid.
func (b Binding) remapped() bool {
	return b.Var != nil && b.Var.IsScalar() && b.Coord != registry.Plain && b.Grid != buffer.WaveformGrid
}

// InitArg is a build-time constant passed to Kernel.Init.
type InitArg struct {
	Name  string
	Const *Constant
}

// Constant is a scalar argument fixed at build time or derived from the
// sample period.
type Constant struct {
	ID int
	// Expr is nil for plain numbers.
	Expr *units.Expr
	// Value is the number, or the value for DefaultPeriod when Expr is set.
	Value  float64
	Params map[string]float64
	// Coord and Grid map a time-valued Expr onto the grid of the step the
	// constant is bound to. Plain numbers are already on that grid.
	Coord registry.Coord
	Grid  buffer.Grid
	// Origins holds the grid origin of every variable whose offset Expr
	// references.
	Origins map[string]int
}

// PeriodDependent reports whether the constant must be re-evaluated when
// the sample period changes.
func (c *Constant) PeriodDependent() bool {
	return c.Expr != nil && c.Expr.PeriodDependent()
}

// FollowsOffset reports whether the constant is an absolute time position
// and so moves with the event offset.
func (c *Constant) FollowsOffset() bool {
	return c.Expr != nil && c.Expr.TimeValued() && (c.Coord == registry.Point || len(c.Origins) > 0)
}

// Eval returns the constant's value for a sample period and an event
// offset, both in nanoseconds.
func (c *Constant) Eval(period, offset float64) (float64, error) {
	if !c.PeriodDependent() {
		return c.Value, nil
	}
	var shift float64
	if offset != 0 {
		if !(period > 0) {
			return 0, fmt.Errorf("expression %q: an event offset needs a positive sample period", c.Expr.String())
		}
		shift = offset / period
	}
	f := units.Frame{Period: period, Params: c.Params}
	if len(c.Origins) > 0 {
		f.Offsets = make(map[string]float64, len(c.Origins))
		for name, origin := range c.Origins {
			f.Offsets[name] = shift + float64(origin)
		}
	}
	v, err := c.Expr.EvalIn(f)
	if err != nil || !c.Expr.TimeValued() {
		return v, err
	}
	switch c.Coord {
	case registry.Point:
		return c.Grid.ToLocal(v - shift), nil
	case registry.Span:
		return v / float64(c.Grid.Stride), nil
	default:
		return v, nil
	}
}

// Output is a requested output column.
type Output struct {
	Name  string
	Var   *buffer.Variable
	Attrs map[string]string
}

// hasPeriodDependentInit reports whether any init argument follows the period.
func (s *Step) hasPeriodDependentInit() bool {
	for _, a := range s.Init {
		if a.Const.PeriodDependent() {
			return true
		}
	}
	return false
}
