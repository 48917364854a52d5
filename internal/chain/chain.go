package chain

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/registry"
	"github.com/vk/dspchain/internal/table"
)

// Chain is a runnable instance of a Plan. It is not safe for concurrent
// use; use Clone to obtain one instance per goroutine.
type Chain struct {
	plan   *Plan
	arena  *buffer.Arena
	calls  []*registry.Call
	consts [][]float64
	// remaps holds, per step, the scalar time bindings converted between
	// the waveform grid and the step's grid around Run.
	remaps [][]remap
	// period and offset are what the constants were last evaluated for;
	// ready is false until every constant holds a value.
	period       float64
	offset       float64
	followOffset bool
	ready        bool
}

// remap is one scalar binding whose kernel-side value lives on a step grid.
type remap struct {
	role  registry.Role
	coord registry.Coord
	grid  buffer.Grid
	// shared is the arena buffer on the waveform grid, local the buffer
	// bound to the kernel.
	shared []float64
	local  []float64
}

func (r remap) toLocal() {
	x := r.shared[0]
	if r.coord == registry.Span {
		r.local[0] = x / float64(r.grid.Stride)
		return
	}
	r.local[0] = r.grid.ToLocal(x)
}

func (r remap) fromLocal() {
	x := r.local[0]
	if r.coord == registry.Span {
		r.shared[0] = x * float64(r.grid.Stride)
		return
	}
	r.shared[0] = r.grid.FromLocal(x)
}

// New allocates an instance of plan and evaluates its constants and kernel
// state for plan.DefaultPeriod. Period-dependent constants are left for the
// first event when no default period is set.
func New(plan *Plan) (*Chain, error) {
	c := newInstance(plan)
	c.ready = true
	for _, k := range plan.Constants {
		if !k.PeriodDependent() || plan.DefaultPeriod > 0 {
			v, err := k.Eval(plan.DefaultPeriod, 0)
			if err != nil {
				return nil, &config.ConfigError{Excerpt: excerpt(k), Err: err}
			}
			c.consts[k.ID][0] = v
		} else {
			c.consts[k.ID][0] = buffer.NotAvailable
			c.ready = false
		}
	}
	for i, s := range plan.Steps {
		if s.Kernel.Init == nil || (s.hasPeriodDependentInit() && !(plan.DefaultPeriod > 0)) {
			continue
		}
		state, err := c.initStep(s)
		if err != nil {
			return nil, &config.ConfigError{Step: s.Name, Err: err}
		}
		c.calls[i].State = state
	}
	c.period = plan.DefaultPeriod
	return c, nil
}

func newInstance(plan *Plan) *Chain {
	c := &Chain{
		plan:   plan,
		arena:  buffer.NewArena(plan.Table),
		calls:  make([]*registry.Call, len(plan.Steps)),
		consts: make([][]float64, len(plan.Constants)),
		remaps: make([][]remap, len(plan.Steps)),
	}
	for i, k := range plan.Constants {
		c.consts[i] = make([]float64, 1)
		if k.FollowsOffset() {
			c.followOffset = true
		}
	}
	for i, s := range plan.Steps {
		call := registry.NewCall(s.Kernel, s.Name)
		for _, b := range s.Bindings {
			switch {
			case b.remapped():
				r := remap{
					role:   b.Role,
					coord:  b.Coord,
					grid:   b.Grid,
					shared: c.arena.Buffer(b.Var),
					local:  make([]float64, 1),
				}
				c.remaps[i] = append(c.remaps[i], r)
				call.Bind(b.Param, r.local)
			case b.Var != nil:
				call.Bind(b.Param, c.arena.Buffer(b.Var))
			case b.Const != nil:
				call.Bind(b.Param, c.consts[b.Const.ID])
			case b.HasOption:
				call.BindOption(b.Param, b.Option)
			}
		}
		for k, v := range s.Kwargs {
			call.SetKwarg(k, v)
		}
		c.calls[i] = call
	}
	return c
}

// Clone returns an independent instance sharing the plan. Init state is
// shared with the receiver; kernels must treat it as read-only.
func (c *Chain) Clone() *Chain {
	n := newInstance(c.plan)
	for i := range c.consts {
		n.consts[i][0] = c.consts[i][0]
	}
	for i, s := range c.plan.Steps {
		if s.Kernel.Init != nil {
			n.calls[i].State = c.calls[i].State
		}
	}
	n.period = c.period
	n.offset = c.offset
	n.ready = c.ready
	return n
}

// Plan returns the compiled plan of the chain.
func (c *Chain) Plan() *Plan { return c.plan }

// Schedule returns the names of the scheduled steps in execution order.
func (c *Chain) Schedule() []string {
	names := make([]string, len(c.plan.Steps))
	for i, s := range c.plan.Steps {
		names[i] = s.Name
	}
	return names
}

// Outputs returns the requested output names in column order.
func (c *Chain) Outputs() []string {
	names := make([]string, len(c.plan.Outputs))
	for i, o := range c.plan.Outputs {
		names[i] = o.Name
	}
	return names
}

// Execute runs every scheduled step on ev. Errors are *config.ContractError
// and mean the batch must stop; numeric failures only write sentinels.
func (c *Chain) Execute(ev *table.Event) error {
	if len(ev.Samples) != c.plan.WaveformLength {
		return &config.ContractError{
			Event: ev.Index,
			Err:   fmt.Errorf("waveform has %d samples, chain was built for %d", len(ev.Samples), c.plan.WaveformLength),
		}
	}
	if !c.ready || ev.SamplePeriod != c.period || (c.followOffset && ev.Offset != c.offset) {
		if err := c.refresh(ev.SamplePeriod, ev.Offset); err != nil {
			return withEvent(err, ev.Index)
		}
	}

	c.arena.Reset()
	if err := c.bindInputs(ev); err != nil {
		return &config.ContractError{Event: ev.Index, Err: err}
	}

	for i, s := range c.plan.Steps {
		if err := c.runStep(s, c.calls[i], c.remaps[i]); err != nil {
			return &config.ContractError{Step: s.Name, Event: ev.Index, Err: err}
		}
	}
	return nil
}

func (c *Chain) bindInputs(ev *table.Event) error {
	if err := buffer.Load(c.arena.Buffer(c.plan.Waveform), ev.Samples); err != nil {
		return err
	}
	c.arena.Buffer(c.plan.Timestamp)[0] = ev.Timestamp
	c.arena.Buffer(c.plan.Channel)[0] = float64(ev.Channel)
	return nil
}

func (c *Chain) runStep(s *Step, call *registry.Call, remaps []remap) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel %s panicked: %v\n%s", s.Kernel.Name(), r, debug.Stack())
		}
	}()

	for _, b := range s.Bindings {
		if b.Var != nil && b.Role == registry.In {
			c.arena.Gather(b.Var)
		}
	}
	for _, r := range remaps {
		if r.role == registry.In {
			r.toLocal()
		} else {
			r.local[0] = buffer.NotAvailable
		}
	}
	if err := s.Kernel.Run(call); err != nil {
		return err
	}
	for _, r := range remaps {
		if r.role == registry.Out {
			r.fromLocal()
		}
	}
	for _, b := range s.Bindings {
		if b.Var != nil && b.Role == registry.Out {
			c.arena.Scatter(b.Var)
		}
	}
	return nil
}

// refresh re-evaluates period-dependent constants and the state of kernels
// whose init arguments follow the period.
func (c *Chain) refresh(period, offset float64) error {
	for _, k := range c.plan.Constants {
		if !k.PeriodDependent() {
			continue
		}
		v, err := k.Eval(period, offset)
		if err != nil {
			return &config.ContractError{Err: err}
		}
		c.consts[k.ID][0] = v
	}
	for i, s := range c.plan.Steps {
		if s.Kernel.Init == nil || !s.hasPeriodDependentInit() {
			continue
		}
		state, err := c.initStep(s)
		if err != nil {
			return &config.ContractError{Step: s.Name, Err: err}
		}
		c.calls[i].State = state
	}
	c.period = period
	c.offset = offset
	c.ready = true
	return nil
}

func (c *Chain) initStep(s *Step) (any, error) {
	init := make(map[string]float64, len(s.Init))
	for _, a := range s.Init {
		init[a.Name] = c.consts[a.Const.ID][0]
	}
	return s.Kernel.Init(init, s.Lengths)
}

func withEvent(err error, index int64) error {
	var cerr *config.ContractError
	if errors.As(err, &cerr) {
		cerr.Event = index
		return cerr
	}
	return &config.ContractError{Event: index, Err: err}
}

func excerpt(k *Constant) string {
	if k.Expr == nil {
		return ""
	}
	return k.Expr.String()
}
