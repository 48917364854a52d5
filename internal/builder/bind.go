package builder

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/vk/dspchain/internal/args"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/registry"
)

// Keyword options understood for every kernel.
const (
	kwargSignature = "signature"
	kwargTypes     = "types"
)

// boundStep is a processor after its arguments have been assigned to the
// kernel's parameters.
type boundStep struct {
	index  int
	proc   *config.Processor
	kernel *registry.Kernel
	// slots is aligned with kernel.Params; an unset slot is an omitted argument.
	slots  []slot
	init   []initSlot
	kwargs map[string]string
	params map[string]float64
	// reads are the variables named by input positions, writes those named
	// by output positions.
	reads  []string
	writes []string
}

type slot struct {
	arg args.Arg
	set bool
}

func (s slot) omitted() bool { return !s.set || s.arg.Kind == args.None }

type initSlot struct {
	param registry.InitParam
	arg   args.Arg
	set   bool
}

func (b *boundStep) name() string { return b.proc.Name }

// bindStep resolves the kernel of p and assigns its arguments.
func bindStep(index int, p *config.Processor, reg *registry.Registry, opts Options) (*boundStep, error) {
	k, err := reg.Lookup(p.Module, p.Function)
	if err != nil {
		return nil, &config.ConfigError{Step: p.Name, Err: err}
	}
	b := &boundStep{
		index:  index,
		proc:   p,
		kernel: k,
		slots:  make([]slot, len(k.Params)),
		params: opts.params(p.Defaults),
	}

	parsed, err := args.ParseAll(p.Args)
	if err != nil {
		return nil, &config.ConfigError{Step: p.Name, Err: err}
	}
	if err := b.assign(parsed); err != nil {
		return nil, err
	}
	if err := b.checkSlots(); err != nil {
		return nil, err
	}
	if err := b.bindKwargs(); err != nil {
		return nil, err
	}
	if err := b.bindInit(); err != nil {
		return nil, err
	}
	if err := b.checkParams(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *boundStep) fail(variable, excerpt, format string, a ...any) *config.ConfigError {
	return &config.ConfigError{Step: b.name(), Variable: variable, Excerpt: excerpt, Err: fmt.Errorf(format, a...)}
}

// assign maps positional arguments to parameters in order and keyword
// arguments by name.
func (b *boundStep) assign(parsed []args.Arg) error {
	k := b.kernel
	pos := 0
	sawKeyword := false
	for _, a := range parsed {
		var idx int
		if a.Keyword != "" {
			j, _, ok := k.Param(a.Keyword)
			if !ok {
				return b.fail("", a.Raw, "%s has no parameter %q", k.Name(), a.Keyword)
			}
			idx = j
			sawKeyword = true
		} else {
			if sawKeyword {
				return b.fail("", a.Raw, "positional argument follows keyword argument")
			}
			if pos >= len(k.Params) {
				return b.fail("", a.Raw, "too many arguments: %s takes %d", k.Name(), len(k.Params))
			}
			idx = pos
			pos++
		}
		if b.slots[idx].set {
			return b.fail("", a.Raw, "parameter %q assigned more than once", k.Params[idx].Name)
		}
		b.slots[idx] = slot{arg: a, set: true}
	}
	return nil
}

// checkSlots verifies each argument fits its parameter and records the
// variables read and written.
func (b *boundStep) checkSlots() error {
	k := b.kernel
	for i, prm := range k.Params {
		s := b.slots[i]
		if s.omitted() {
			if prm.Role == registry.Out || !prm.Optional {
				return b.fail("", "", "missing argument %q of %s%s", prm.Name, k.Name(), k.Signature())
			}
			continue
		}
		a := s.arg

		if prm.Role == registry.Out {
			if a.Kind != args.Var && a.Kind != args.Decl {
				return b.fail("", a.Raw, "output %q must name a variable, got a %s", prm.Name, a.Kind)
			}
			if slices.Contains(b.writes, a.Name) {
				return b.fail(a.Name, a.Raw, "variable written by two outputs of the same step")
			}
			b.writes = append(b.writes, a.Name)
			continue
		}

		switch prm.Shape {
		case registry.Array:
			if a.Kind != args.Var && a.Kind != args.Slice {
				return b.fail("", a.Raw, "input %q expects an array variable, got a %s", prm.Name, a.Kind)
			}
		case registry.Scalar:
			switch a.Kind {
			case args.Var, args.Number, args.Expr:
			default:
				return b.fail("", a.Raw, "input %q expects a scalar, got a %s", prm.Name, a.Kind)
			}
		case registry.Option:
			if a.Kind != args.Text {
				return b.fail("", a.Raw, "input %q expects a quoted option, one of %s", prm.Name, quoteAll(prm.Choices))
			}
			if !slices.Contains(prm.Choices, a.Text) {
				return b.fail("", a.Raw, "input %q must be one of %s", prm.Name, quoteAll(prm.Choices))
			}
		}
		if a.Kind == args.Var || a.Kind == args.Slice {
			b.reads = append(b.reads, a.Name)
		}
		b.readOffsets(a)
	}

	for _, name := range b.proc.Outputs {
		if !slices.Contains(b.writes, name) {
			return b.fail(name, "", "named by the processor but not written by any output argument")
		}
	}
	return nil
}

func (b *boundStep) bindKwargs() error {
	k := b.kernel
	b.kwargs = make(map[string]string, len(b.proc.Kwargs))

	names := make([]string, 0, len(b.proc.Kwargs))
	for name := range b.proc.Kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := b.proc.Kwargs[name]
		switch name {
		case kwargSignature:
			if v.Kind != config.String {
				return b.fail("", v.Text(), "kwarg %q must be a string", name)
			}
			if got := strings.ReplaceAll(v.Str, " ", ""); got != k.Signature() {
				return b.fail("", v.Str, "signature does not match %s%s", k.Name(), k.Signature())
			}
			continue
		case kwargTypes:
			if _, err := v.Strings(); err != nil {
				return b.fail("", v.Text(), "kwarg %q: %v", name, err)
			}
			continue
		}

		kw, ok := k.Kwarg(name)
		if !ok {
			return b.fail("", v.Text(), "%s has no kwarg %q", k.Name(), name)
		}
		value := strings.Trim(v.Text(), `'"`)
		if len(kw.Choices) > 0 && !slices.Contains(kw.Choices, value) {
			return b.fail("", v.Text(), "kwarg %q must be one of %s", name, quoteAll(kw.Choices))
		}
		b.kwargs[name] = value
	}
	return nil
}

func (b *boundStep) bindInit() error {
	k := b.kernel
	parsed, err := args.ParseAll(b.proc.InitArgs)
	if err != nil {
		return &config.ConfigError{Step: b.name(), Err: fmt.Errorf("init_args: %w", err)}
	}
	if len(parsed) > 0 && len(k.InitParams) == 0 {
		return b.fail("", "", "%s takes no init_args", k.Name())
	}

	b.init = make([]initSlot, len(k.InitParams))
	for i, ip := range k.InitParams {
		b.init[i].param = ip
	}
	pos := 0
	for _, a := range parsed {
		idx := -1
		if a.Keyword != "" {
			for i, ip := range k.InitParams {
				if ip.Name == a.Keyword {
					idx = i
				}
			}
			if idx < 0 {
				return b.fail("", a.Raw, "%s has no init parameter %q", k.Name(), a.Keyword)
			}
		} else {
			if pos >= len(k.InitParams) {
				return b.fail("", a.Raw, "too many init_args: %s takes %d", k.Name(), len(k.InitParams))
			}
			idx = pos
			pos++
		}
		if b.init[idx].set {
			return b.fail("", a.Raw, "init parameter %q assigned more than once", k.InitParams[idx].Name)
		}
		if a.Kind != args.None && !a.IsConstant() {
			return b.fail("", a.Raw, "init parameter %q must be a number or unit expression", k.InitParams[idx].Name)
		}
		b.init[idx].arg = a
		b.init[idx].set = a.Kind != args.None
		b.readOffsets(a)
	}

	for _, is := range b.init {
		if !is.set && is.param.Default == nil {
			return b.fail("", "", "missing init parameter %q of %s", is.param.Name, k.Name())
		}
	}
	return nil
}

// readOffsets records variables whose offset a expression references; their
// writers must be declared first.
func (b *boundStep) readOffsets(a args.Arg) {
	for _, e := range exprsOf(a) {
		b.reads = append(b.reads, e.Offsets()...)
	}
}

// checkParams verifies every db.<name> reference has a value.
func (b *boundStep) checkParams() error {
	check := func(a args.Arg) error {
		for _, e := range exprsOf(a) {
			for _, name := range e.Params() {
				if _, ok := b.params[name]; !ok {
					return b.fail("", a.Raw, "parameter db.%s has no value; set it in defaults or the build parameters", name)
				}
			}
		}
		return nil
	}
	for _, s := range b.slots {
		if s.set {
			if err := check(s.arg); err != nil {
				return err
			}
		}
	}
	for _, is := range b.init {
		if is.set {
			if err := check(is.arg); err != nil {
				return err
			}
		}
	}
	return nil
}

func quoteAll(choices []string) string {
	q := make([]string, len(choices))
	for i, c := range choices {
		q[i] = "'" + c + "'"
	}
	return strings.Join(q, ", ")
}
