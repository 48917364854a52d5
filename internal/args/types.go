package args

import (
	"github.com/vk/dspchain/internal/units"
)

// Kind discriminates parsed arguments.
type Kind int

const (
	// Number is a constant known without a sample period.
	Number Kind = iota
	// None omits an optional parameter.
	None
	// Text is a quoted option string such as 'n'.
	Text
	// Var references a variable by name.
	Var
	// Slice references a view of an array variable.
	Slice
	// Decl references a variable and declares its shape.
	Decl
	// Expr is a unit or parameter expression evaluated against the period.
	Expr
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case None:
		return "none"
	case Text:
		return "text"
	case Var:
		return "variable"
	case Slice:
		return "slice"
	case Decl:
		return "declaration"
	case Expr:
		return "expression"
	default:
		return "unknown"
	}
}

// Arg is one parsed processor argument.
type Arg struct {
	Kind Kind
	// Raw is the argument as written, used in error messages.
	Raw string
	// Keyword is set when the argument was written as key=value.
	Keyword string

	Value float64     // Number
	Text  string      // Text
	Expr  *units.Expr // Expr

	// Name is the referenced variable for Var, Slice and Decl.
	Name string
	// Start, Stop and Step bound a Slice; nil means omitted.
	Start, Stop, Step *units.Expr
	// Length, ElemKind and Unit describe a Decl. A nil Length declares a scalar.
	Length   *units.Expr
	ElemKind string
	Unit     string
}

// IsReference reports whether the argument names a variable.
func (a Arg) IsReference() bool {
	return a.Kind == Var || a.Kind == Slice || a.Kind == Decl
}

// IsConstant reports whether the argument is a number or an expression.
func (a Arg) IsConstant() bool {
	return a.Kind == Number || a.Kind == Expr
}
