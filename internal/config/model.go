package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Model is the unified, format-agnostic representation of a chain document.
type Model struct {
	// Outputs lists the variables projected per event, in column order.
	Outputs []string `yaml:"outputs" validate:"required,min=1,unique,dive,required"`
	// Processors are kept in declaration order.
	Processors []*Processor `yaml:"processors" validate:"required,min=1,dive,required"`
}

// Processor is one named processing step of the chain.
type Processor struct {
	// Name is the key as written, e.g. "tp_min, tp_max".
	Name string `yaml:"name" validate:"required"`
	// Outputs are the comma separated names of Name, trimmed.
	Outputs  []string         `yaml:"-" validate:"required,min=1,dive,required"`
	Module   string           `yaml:"module" validate:"required"`
	Function string           `yaml:"function" validate:"required"`
	Args     []Value          `yaml:"args"`
	Kwargs   map[string]Value `yaml:"kwargs"`
	InitArgs []Value          `yaml:"init_args"`
	Units    []string         `yaml:"unit"`
	// Defaults supplies values for db.<name> references that have no
	// override in the build options.
	Defaults map[string]float64 `yaml:"defaults"`
	// Attrs are copied verbatim onto the projected fields.
	Attrs map[string]string `yaml:"attrs"`
	// Source locates the declaration for error messages, e.g. "chain.hcl:12".
	Source string `yaml:"-"`
}

// SplitNames splits a processor key into its trimmed output names.
func SplitNames(key string) []string {
	parts := strings.Split(key, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// ValueKind discriminates raw argument values.
type ValueKind int

const (
	Null ValueKind = iota
	String
	Number
	Bool
	List
)

// Value is a raw argument exactly as it appears in a chain document.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
}

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: Null} }
func StringValue(s string) Value { return Value{Kind: String, Str: s} }
func NumberValue(f float64) Value { return Value{Kind: Number, Num: f} }
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }
func ListValue(vs ...Value) Value { return Value{Kind: List, List: vs} }

// Text renders the value the way it would be written in a document.
func (v Value) Text() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case List:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Text()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "null"
	}
}

// String implements fmt.Stringer.
func (k ValueKind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case List:
		return "list"
	default:
		return "null"
	}
}

// Strings returns the elements of a list of strings, or the value itself
// when it is a single string.
func (v Value) Strings() ([]string, error) {
	switch v.Kind {
	case String:
		return []string{v.Str}, nil
	case List:
		out := make([]string, len(v.List))
		for i, item := range v.List {
			if item.Kind != String {
				return nil, fmt.Errorf("element %d is a %s, want string", i, item.Kind)
			}
			out[i] = item.Str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("got %s, want string or list of strings", v.Kind)
	}
}
