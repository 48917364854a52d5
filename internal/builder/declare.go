package builder

import (
	"fmt"
	"math"

	"github.com/vk/dspchain/internal/args"
	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/registry"
	"github.com/vk/dspchain/internal/units"
)

// declarer turns bound steps into plan steps, declaring variables as it goes.
type declarer struct {
	table     *buffer.Table
	opts      Options
	constants []*chain.Constant
}

func (d *declarer) declare(b *boundStep) (*chain.Step, error) {
	k := b.kernel
	step := &chain.Step{
		Name:    b.name(),
		Kernel:  k,
		Kwargs:  b.kwargs,
		Lengths: make(registry.Lengths),
	}
	vars := make(map[string]*buffer.Variable, len(k.Params))

	// The step works on the grid of its first array input; array inputs
	// are resolved up front so constants can be placed on it.
	grid := buffer.WaveformGrid
	arrays := make(map[int]*buffer.Variable)
	for i, prm := range k.Params {
		s := b.slots[i]
		if prm.Role != registry.In || prm.Shape != registry.Array || s.omitted() {
			continue
		}
		v, err := d.resolveInput(b, prm, s.arg)
		if err != nil {
			return nil, err
		}
		if len(arrays) == 0 {
			grid = v.Grid
		}
		arrays[i] = v
	}

	for i, prm := range k.Params {
		s := b.slots[i]
		bind := chain.Binding{Param: prm.Name, Role: prm.Role, Coord: prm.Coord, Grid: grid}

		switch {
		case prm.Role == registry.Out:
			v, err := d.declareOutput(b, prm, s.arg, vars, step.Lengths)
			if err != nil {
				return nil, err
			}
			if v.IsScalar() {
				v.Position = prm.Coord == registry.Point
			} else {
				v.Grid = grid
			}
			bind.Var = v
			vars[prm.Name] = v

		case s.omitted():
			if prm.Default != nil {
				bind.Const = d.number(*prm.Default)
			}

		case prm.Shape == registry.Option:
			bind.Option, bind.HasOption = s.arg.Text, true

		case s.arg.IsConstant():
			c, err := d.constant(b, s.arg, prm.Coord, grid)
			if err != nil {
				return nil, err
			}
			bind.Const = c

		default:
			v, ok := arrays[i]
			if !ok {
				var err error
				if v, err = d.resolveInput(b, prm, s.arg); err != nil {
					return nil, err
				}
			}
			bind.Var = v
			vars[prm.Name] = v
			if prm.Shape == registry.Array {
				step.Lengths[prm.Name] = v.Length
			}
		}
		step.Bindings = append(step.Bindings, bind)
	}

	if k.Check != nil {
		if err := k.Check(step.Lengths); err != nil {
			return nil, b.fail("", "", "%s: %v", k.Name(), err)
		}
	}

	for _, is := range b.init {
		var c *chain.Constant
		if is.set {
			var err error
			if c, err = d.constant(b, is.arg, is.param.Coord, grid); err != nil {
				return nil, err
			}
		} else {
			c = d.number(*is.param.Default)
		}
		step.Init = append(step.Init, chain.InitArg{Name: is.param.Name, Const: c})
	}
	return step, nil
}

func (d *declarer) resolveInput(b *boundStep, prm registry.Param, a args.Arg) (*buffer.Variable, error) {
	var (
		v   *buffer.Variable
		err error
	)
	if a.Kind == args.Slice {
		v, err = d.slice(b, a)
	} else {
		v, err = d.table.Resolve(a.Name)
	}
	if err != nil {
		return nil, b.fail(a.Name, a.Raw, "%v", err)
	}

	switch {
	case prm.Shape == registry.Array && v.IsScalar():
		return nil, b.fail(a.Name, a.Raw, "input %q expects an array, got a scalar", prm.Name)
	case prm.Shape == registry.Scalar && !v.IsScalar():
		return nil, b.fail(a.Name, a.Raw, "input %q expects a scalar, got shape %s", prm.Name, v.Shape())
	}
	return v, nil
}

func (d *declarer) slice(b *boundStep, a args.Arg) (*buffer.Variable, error) {
	var bounds [3]buffer.Bound
	for i, e := range []*units.Expr{a.Start, a.Stop, a.Step} {
		if e == nil {
			continue
		}
		n, err := d.index(b, e)
		if err != nil {
			return nil, err
		}
		bounds[i] = buffer.At(n)
	}
	step := 1
	if bounds[2].Set {
		step = bounds[2].Value
	}
	return d.table.SliceOf(a.Name, bounds[0], bounds[1], step)
}

// index evaluates a shape or slice bound, which must be an integer that
// does not depend on the sample period.
func (d *declarer) index(b *boundStep, e *units.Expr) (int, error) {
	if e.PeriodDependent() {
		return 0, fmt.Errorf("%q depends on the sample period; shapes and slice bounds must be sample counts", e.String())
	}
	v, err := e.Eval(0, b.params)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is not an integer", e.String())
	}
	return int(v), nil
}

func (d *declarer) declareOutput(b *boundStep, prm registry.Param, a args.Arg, vars map[string]*buffer.Variable, lengths registry.Lengths) (*buffer.Variable, error) {
	kind := prm.Kind
	if kind == buffer.Unset {
		kind = buffer.Real
	}
	if a.Kind == args.Decl && a.ElemKind != "" {
		declared, err := buffer.ParseKind(a.ElemKind)
		if err != nil {
			return nil, b.fail(a.Name, a.Raw, "%v", err)
		}
		if prm.Kind != buffer.Unset && declared != prm.Kind {
			return nil, b.fail(a.Name, a.Raw, "output %q is %s, declared %s", prm.Name, prm.Kind, declared)
		}
		kind = declared
	}

	unit := ""
	for i, name := range b.proc.Outputs {
		if name == a.Name {
			unit = b.proc.UnitFor(i)
		}
	}
	if a.Kind == args.Decl && a.Unit != "" {
		unit = a.Unit
	}
	if unit == "" && prm.UnitFrom != "" {
		if src, ok := vars[prm.UnitFrom]; ok {
			unit = src.Unit
		}
	}

	length := 0
	declared := -1
	if a.Kind == args.Decl && a.Length != nil {
		n, err := d.index(b, a.Length)
		if err != nil {
			return nil, b.fail(a.Name, a.Raw, "%v", err)
		}
		if n <= 0 {
			return nil, b.fail(a.Name, a.Raw, "declared length must be positive, got %d", n)
		}
		declared = n
	}
	switch prm.Shape {
	case registry.Scalar:
		if declared >= 0 {
			return nil, b.fail(a.Name, a.Raw, "output %q is a scalar", prm.Name)
		}
	default:
		switch {
		case prm.Length != nil:
			n, err := prm.Length(lengths)
			if err != nil {
				return nil, b.fail(a.Name, a.Raw, "output %q: %v", prm.Name, err)
			}
			if declared >= 0 && declared != n {
				return nil, b.fail(a.Name, a.Raw, "declared length %d, %s produces %d", declared, b.kernel.Name(), n)
			}
			length = n
		case declared >= 0:
			length = declared
		default:
			return nil, b.fail(a.Name, a.Raw, "output %q needs an explicit shape, e.g. %s(100)", prm.Name, a.Name)
		}
	}

	v, err := d.table.Declare(a.Name, length, kind, unit)
	if err != nil {
		return nil, b.fail(a.Name, a.Raw, "%v", err)
	}
	lengths[prm.Name] = length
	return v, nil
}

func (d *declarer) number(v float64) *chain.Constant {
	c := &chain.Constant{ID: len(d.constants), Value: v}
	d.constants = append(d.constants, c)
	return c
}

// constant evaluates what can be evaluated at build time. Period-dependent
// expressions are checked against the default period when one is set.
func (d *declarer) constant(b *boundStep, a args.Arg, coord registry.Coord, grid buffer.Grid) (*chain.Constant, error) {
	if a.Kind == args.Number {
		return d.number(a.Value), nil
	}
	c := &chain.Constant{
		ID:     len(d.constants),
		Expr:   a.Expr,
		Params: b.params,
		Coord:  coord,
		Grid:   grid,
	}
	for _, name := range a.Expr.Offsets() {
		v, err := d.table.Resolve(name)
		if err != nil {
			return nil, b.fail(name, a.Raw, "%s.%s: %v", name, units.OffsetAttr, err)
		}
		if v.IsScalar() {
			return nil, b.fail(name, a.Raw, "%s.%s: scalar variables have no sample grid", name, units.OffsetAttr)
		}
		if c.Origins == nil {
			c.Origins = make(map[string]int)
		}
		c.Origins[name] = v.Grid.Origin
	}
	var (
		v   float64
		err error
	)
	switch {
	case !a.Expr.PeriodDependent():
		v, err = a.Expr.Eval(0, b.params)
	case d.opts.SamplePeriod > 0:
		v, err = c.Eval(d.opts.SamplePeriod, 0)
	}
	if err != nil {
		return nil, b.fail("", a.Raw, "%v", err)
	}
	c.Value = v
	d.constants = append(d.constants, c)
	return c, nil
}

// exprsOf lists the expressions embedded in an argument.
func exprsOf(a args.Arg) []*units.Expr {
	var out []*units.Expr
	for _, e := range []*units.Expr{a.Expr, a.Start, a.Stop, a.Step, a.Length} {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
