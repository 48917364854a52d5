package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
)

// isExprDefined reports whether an optional attribute was written. The
// decoder fills omitted optional expressions with zero-width placeholders.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

func translateProcessor(ctx context.Context, name string, pb *processorBlock) (*config.Processor, error) {
	logger := ctxlog.FromContext(ctx)
	p := &config.Processor{
		Name:     name,
		Module:   pb.Module,
		Function: pb.Function,
		Defaults: pb.Defaults,
		Attrs:    pb.Attrs,
	}

	var err error
	if p.Args, err = listAttr(pb.Args, "args"); err != nil {
		return nil, err
	}
	if p.InitArgs, err = listAttr(pb.InitArgs, "init_args"); err != nil {
		return nil, err
	}

	if isExprDefined(pb.Kwargs) {
		if p.Kwargs, err = kwargsAttr(pb.Kwargs); err != nil {
			return nil, err
		}
	}

	if isExprDefined(pb.Unit) {
		val, diags := pb.Unit.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		cv, err := toValue(val)
		if err != nil {
			return nil, fmt.Errorf("unit: %w", err)
		}
		if p.Units, err = cv.Strings(); err != nil {
			return nil, fmt.Errorf("unit: %w", err)
		}
	}

	logger.Debug("Translated processor.",
		"processor", name,
		"function", p.Function,
		"arg_count", len(p.Args),
		"kwarg_count", len(p.Kwargs))
	return p, nil
}

func listAttr(expr hcl.Expression, attr string) ([]config.Value, error) {
	if !isExprDefined(expr) {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	cv, err := toValue(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr, err)
	}
	if cv.Kind != config.List {
		return nil, fmt.Errorf("%s must be a list, got %s", attr, cv.Kind)
	}
	return cv.List, nil
}

func kwargsAttr(expr hcl.Expression) (map[string]config.Value, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("kwargs must be an object, got %s", val.Type().FriendlyName())
	}
	out := make(map[string]config.Value)
	for k, v := range val.AsValueMap() {
		cv, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("kwarg %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

// toValue converts a literal cty value into a config.Value.
func toValue(val cty.Value) (config.Value, error) {
	if !val.IsKnown() {
		return config.Value{}, fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		return config.NullValue(), nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return config.StringValue(val.AsString()), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return config.NumberValue(f), nil
	case ty == cty.Bool:
		return config.BoolValue(val.True()), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		items := make([]config.Value, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			item, err := toValue(elem)
			if err != nil {
				return config.Value{}, err
			}
			items = append(items, item)
		}
		return config.ListValue(items...), nil
	default:
		return config.Value{}, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}
