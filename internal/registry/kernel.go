package registry

import (
	"fmt"
	"strings"

	"github.com/vk/dspchain/internal/buffer"
)

// Role is the direction of a parameter.
type Role int

const (
	In Role = iota
	Out
)

// Shape is the shape class of a parameter.
type Shape int

const (
	Scalar Shape = iota
	Array
	// Option is a single-character or short string choice, such as a mode.
	Option
)

// Coord tells how a scalar parameter relates to the sample grid of the
// step's first array input.
type Coord int

const (
	// Plain values pass through unchanged.
	Plain Coord = iota
	// Point values are positions on the grid, e.g. a pickoff time.
	Point
	// Span values are durations in samples, e.g. a rise time.
	Span
)

// Lengths maps array parameter names to the lengths of their bound buffers.
type Lengths map[string]int

// LengthRule derives an output length from the input lengths.
type LengthRule func(in Lengths) (int, error)

// SameAs gives an output the length of the named input.
func SameAs(param string) LengthRule {
	return Offset(param, 0)
}

// Offset gives an output the length of the named input plus delta.
func Offset(param string, delta int) LengthRule {
	return func(in Lengths) (int, error) {
		n, ok := in[param]
		if !ok {
			return 0, fmt.Errorf("length of %q is unknown", param)
		}
		if n+delta <= 0 {
			return 0, fmt.Errorf("input %q of length %d is too short", param, n)
		}
		return n + delta, nil
	}
}

// Param describes one positional parameter of a kernel.
type Param struct {
	Name  string
	Role  Role
	Shape Shape
	// Kind is the element kind of outputs. Unset outputs are Real.
	Kind buffer.Kind
	// Optional inputs may be omitted or passed as None.
	Optional bool
	// Default is bound when an optional scalar input is omitted.
	Default *float64
	// Choices lists the accepted values of an Option; DefaultChoice is used
	// when the option is omitted.
	Choices       []string
	DefaultChoice string
	// Length derives array output lengths. Nil means the output must be
	// declared explicitly, e.g. `hist_weights(100)`.
	Length LengthRule
	// UnitFrom names an input whose unit an output inherits when the step
	// declares none.
	UnitFrom string
	// Coord marks scalar time positions and durations. Time-valued
	// arguments are mapped onto the step's grid before Run and Point
	// outputs are mapped back onto the waveform grid after it.
	Coord Coord
}

// Float returns a pointer to v, for Param.Default.
func Float(v float64) *float64 { return &v }

// Kwarg describes a keyword option of a kernel.
type Kwarg struct {
	Name    string
	Default string
	Choices []string
}

// InitParam describes a build-time constant consumed by Init.
type InitParam struct {
	Name    string
	Default *float64
	Coord   Coord
}

// Kernel is a registered processing function.
type Kernel struct {
	Module      string
	Function    string
	Description string
	Params      []Param
	Kwargs      []Kwarg
	InitParams  []InitParam

	// Init precomputes per-instance state from init arguments. It runs again
	// whenever a period-dependent init argument changes.
	Init func(init map[string]float64, in Lengths) (any, error)
	// Check validates the bound lengths beyond what Length rules cover.
	Check func(lengths Lengths) error
	// Run processes one event. Numeric failures write sentinels; returned
	// errors are contract violations.
	Run func(c *Call) error

	index map[string]int
}

// Name returns the `module.function` key of the kernel.
func (k *Kernel) Name() string { return k.Module + "." + k.Function }

// Param returns the index and description of the named parameter.
func (k *Kernel) Param(name string) (int, *Param, bool) {
	i, ok := k.indexOf(name)
	if !ok {
		return -1, nil, false
	}
	return i, &k.Params[i], true
}

func (k *Kernel) indexOf(name string) (int, bool) {
	if k.index == nil {
		k.buildIndex()
	}
	i, ok := k.index[name]
	return i, ok
}

func (k *Kernel) buildIndex() {
	k.index = make(map[string]int, len(k.Params))
	for i, p := range k.Params {
		k.index[p.Name] = i
	}
}

// Kwarg returns the named keyword option.
func (k *Kernel) Kwarg(name string) (*Kwarg, bool) {
	for i := range k.Kwargs {
		if k.Kwargs[i].Name == name {
			return &k.Kwargs[i], true
		}
	}
	return nil, false
}

// Outputs returns the output parameters in order.
func (k *Kernel) Outputs() []*Param {
	var out []*Param
	for i := range k.Params {
		if k.Params[i].Role == Out {
			out = append(out, &k.Params[i])
		}
	}
	return out
}

// Signature renders the kernel's core dimensions, e.g. "(n),(),()->(n)".
func (k *Kernel) Signature() string {
	var ins, outs []string
	for _, p := range k.Params {
		dim := "()"
		if p.Shape == Array {
			dim = "(n)"
		}
		if p.Role == In {
			ins = append(ins, dim)
		} else {
			outs = append(outs, dim)
		}
	}
	return strings.Join(ins, ",") + "->" + strings.Join(outs, ",")
}
