package buffer

import (
	"fmt"
	"strings"
)

// Kind is the element kind of a variable.
type Kind int

const (
	// Unset marks a variable whose kind has not been fixed yet.
	Unset Kind = iota
	Real
	Int
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Int:
		return "int"
	default:
		return "unset"
	}
}

// ParseKind accepts the short type codes used in chain declarations.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "d", "real", "float", "float32", "float64":
		return Real, nil
	case "i", "l", "int", "int16", "int32", "int64", "uint16", "uint32":
		return Int, nil
	default:
		return Unset, fmt.Errorf("unknown element kind %q", s)
	}
}

// Grid places element i of an array at sample Origin + i*Stride of the
// event waveform.
type Grid struct {
	Origin int
	Stride int
}

// WaveformGrid is the grid of the event waveform itself.
var WaveformGrid = Grid{Origin: 0, Stride: 1}

// Within returns the grid of elements [lo::step] of an array on g.
func (g Grid) Within(lo, step int) Grid {
	return Grid{Origin: g.Origin + lo*g.Stride, Stride: g.Stride * step}
}

// ToLocal maps a waveform sample position onto g.
func (g Grid) ToLocal(x float64) float64 {
	return (x - float64(g.Origin)) / float64(g.Stride)
}

// FromLocal maps a position on g back onto the waveform.
func (g Grid) FromLocal(x float64) float64 {
	return float64(g.Origin) + x*float64(g.Stride)
}

// Variable describes one named buffer of a chain.
type Variable struct {
	ID   int
	Name string
	Kind Kind
	// Length is the number of elements; zero means scalar.
	Length int
	Unit   string
	// Input marks variables filled from the event rather than by a step.
	Input bool
	// Grid locates array elements on the event waveform. Scalar positions
	// are always stored on WaveformGrid.
	Grid Grid
	// Position marks scalars holding a time position rather than a
	// duration or an amplitude.
	Position bool

	// Parent is set for views. Start and Step locate the view inside the
	// parent's storage; Length is the number of elements covered.
	Parent *Variable
	Start  int
	Step   int
}

// IsScalar reports whether the variable holds a single value.
func (v *Variable) IsScalar() bool { return v.Length == 0 }

// Size returns the number of float64 slots the variable occupies.
func (v *Variable) Size() int {
	if v.Length == 0 {
		return 1
	}
	return v.Length
}

// Root returns the variable owning the storage this one reads and writes.
func (v *Variable) Root() *Variable {
	r := v
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Strided reports whether the view cannot be expressed as a Go sub-slice.
func (v *Variable) Strided() bool { return v.Parent != nil && v.Step != 1 }

// Shape renders the variable's shape for error messages.
func (v *Variable) Shape() string {
	if v.IsScalar() {
		return "()"
	}
	return fmt.Sprintf("(%d)", v.Length)
}
