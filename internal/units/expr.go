package units

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ParamRoot is the traversal root under which build-time parameters are
// referenced, e.g. `db.tau`.
const ParamRoot = "db"

// OffsetAttr is the attribute giving the time of a variable's first sample,
// e.g. `waveform.offset`.
const OffsetAttr = "offset"

// HCL identifiers may contain '-', so `us-256` would scan as one name.
// Numbers are matched first so exponents such as `1e-3` stay intact.
var minusRegex = regexp.MustCompile(`\d+(?:\.\d*)?(?:[eE][-+]?\d+)?|[A-Za-z_]\w*-`)

func splitMinus(src string) string {
	return minusRegex.ReplaceAllStringFunc(src, func(m string) string {
		if name, ok := strings.CutSuffix(m, "-"); ok {
			return name + " - "
		}
		return m
	})
}

// Expr is a parsed unit-bearing literal.
type Expr struct {
	src    string
	expr   hclsyntax.Expression
	units  []string
	params []string
	grids  []string
	dep    bool
	timed  bool
}

// Parse parses src into an Expr. It fails on malformed syntax, on any
// construct other than numeric arithmetic, and on unknown identifiers.
func Parse(src string) (*Expr, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(splitMinus(src)), "literal", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("malformed expression %q: %s", src, diags.Error())
	}

	e := &Expr{src: src, expr: expr}
	seenUnits := make(map[string]struct{})
	seenParams := make(map[string]struct{})
	seenGrids := make(map[string]struct{})
	var walkErr error

	hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		if walkErr != nil {
			return nil
		}
		switch n := node.(type) {
		case *hclsyntax.LiteralValueExpr:
			if n.Val.Type() != cty.Number {
				walkErr = fmt.Errorf("expression %q: only numeric literals are allowed", src)
			}
		case *hclsyntax.BinaryOpExpr:
			switch n.Op {
			case hclsyntax.OpAdd, hclsyntax.OpSubtract, hclsyntax.OpMultiply, hclsyntax.OpDivide:
			default:
				walkErr = fmt.Errorf("expression %q: unsupported operator", src)
			}
		case *hclsyntax.UnaryOpExpr:
			if n.Op != hclsyntax.OpNegate {
				walkErr = fmt.Errorf("expression %q: unsupported operator", src)
			}
		case *hclsyntax.ParenthesesExpr:
		case *hclsyntax.ScopeTraversalExpr:
			walkErr = e.addReference(n.Traversal, seenUnits, seenParams, seenGrids)
		default:
			walkErr = fmt.Errorf("expression %q: unsupported construct %T", src, node)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(e.units)
	sort.Strings(e.params)
	sort.Strings(e.grids)
	return e, nil
}

func (e *Expr) addReference(tr hcl.Traversal, seenUnits, seenParams, seenGrids map[string]struct{}) error {
	root := tr.RootName()
	if root == ParamRoot {
		if len(tr) != 2 {
			return fmt.Errorf("expression %q: parameter reference must be %s.<name>", e.src, ParamRoot)
		}
		attr, ok := tr[1].(hcl.TraverseAttr)
		if !ok {
			return fmt.Errorf("expression %q: parameter reference must be %s.<name>", e.src, ParamRoot)
		}
		if _, seen := seenParams[attr.Name]; !seen {
			seenParams[attr.Name] = struct{}{}
			e.params = append(e.params, attr.Name)
		}
		return nil
	}

	if len(tr) == 2 {
		if attr, ok := tr[1].(hcl.TraverseAttr); ok && attr.Name == OffsetAttr {
			if _, isUnit := Lookup(root); isUnit {
				return fmt.Errorf("expression %q: %q is a unit and has no %s", e.src, root, OffsetAttr)
			}
			if _, seen := seenGrids[root]; !seen {
				seenGrids[root] = struct{}{}
				e.grids = append(e.grids, root)
			}
			e.dep, e.timed = true, true
			return nil
		}
	}

	u, ok := Lookup(root)
	if !ok || len(tr) != 1 {
		return fmt.Errorf("expression %q: unknown unit %q", e.src, root)
	}
	if _, seen := seenUnits[root]; !seen {
		seenUnits[root] = struct{}{}
		e.units = append(e.units, root)
	}
	if u.PeriodDependent() {
		e.dep = true
	}
	if u.Dimension == Time {
		e.timed = true
	}
	return nil
}

// String returns the source text of the expression.
func (e *Expr) String() string { return e.src }

// PeriodDependent reports whether the value changes with the sample period.
func (e *Expr) PeriodDependent() bool { return e.dep }

// Params lists the parameter names referenced through `db.<name>`.
func (e *Expr) Params() []string { return e.params }

// Units lists the unit identifiers referenced by the expression.
func (e *Expr) Units() []string { return e.units }

// Offsets lists the variables whose offset the expression references.
func (e *Expr) Offsets() []string { return e.grids }

// TimeValued reports whether the expression denotes a time, i.e. it uses a
// time unit or a variable offset.
func (e *Expr) TimeValued() bool { return e.timed }

// Frame holds what an expression is evaluated against.
type Frame struct {
	// Period is the sample period in nanoseconds.
	Period float64
	Params map[string]float64
	// Offsets gives, per variable, the time of its first sample in samples
	// of Period.
	Offsets map[string]float64
}

// Eval evaluates the expression for a sample period (ns) and a parameter set.
func (e *Expr) Eval(period float64, params map[string]float64) (float64, error) {
	return e.EvalIn(Frame{Period: period, Params: params})
}

// EvalIn evaluates the expression against f.
func (e *Expr) EvalIn(f Frame) (out float64, err error) {
	period, params := f.Period, f.Params
	vars := make(map[string]cty.Value, len(e.units)+len(e.grids)+1)
	for _, name := range e.units {
		u, _ := Lookup(name)
		v, err := u.InSamples(period)
		if err != nil {
			return 0, fmt.Errorf("expression %q: %w", e.src, err)
		}
		vars[name] = cty.NumberFloatVal(v)
	}
	for _, name := range e.grids {
		v, ok := f.Offsets[name]
		if !ok {
			return 0, fmt.Errorf("expression %q: offset of %q is not known", e.src, name)
		}
		vars[name] = cty.ObjectVal(map[string]cty.Value{OffsetAttr: cty.NumberFloatVal(v)})
	}
	if len(e.params) > 0 {
		attrs := make(map[string]cty.Value, len(e.params))
		for _, name := range e.params {
			v, ok := params[name]
			if !ok {
				return 0, fmt.Errorf("expression %q: parameter %s.%s has no value", e.src, ParamRoot, name)
			}
			attrs[name] = cty.NumberFloatVal(v)
		}
		vars[ParamRoot] = cty.ObjectVal(attrs)
	}

	// big.Float panics on 0/0; report it like any other evaluation failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("expression %q: %v", e.src, r)
		}
	}()

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return 0, fmt.Errorf("expression %q: %s", e.src, diags.Error())
	}
	if val.IsNull() || !val.IsKnown() {
		return 0, fmt.Errorf("expression %q did not produce a number", e.src)
	}
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return 0, fmt.Errorf("expression %q: %w", e.src, err)
	}
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, fmt.Errorf("expression %q is not finite", e.src)
	}
	return out, nil
}

// Resolve parses and evaluates src in one call.
func Resolve(src string, period float64) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(period, nil)
}
