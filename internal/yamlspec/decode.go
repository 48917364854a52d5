package yamlspec

import (
	"context"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
)

// ignoredKeys are processor keys written by other tools that carry no
// meaning here. Dependencies are derived from the arguments.
var ignoredKeys = map[string]bool{
	"prereqs": true,
}

type decoder struct {
	filename string
}

func (d *decoder) errorf(n *yaml.Node, format string, a ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, a...))
}

func (d *decoder) document(ctx context.Context, root *yaml.Node, model *config.Model) error {
	if root.Kind != yaml.MappingNode {
		return d.errorf(root, "chain document must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "outputs":
			var outputs []string
			if err := val.Decode(&outputs); err != nil {
				return d.errorf(val, "outputs: %v", err)
			}
			model.Outputs = append(model.Outputs, outputs...)
		case "processors":
			if val.Kind != yaml.MappingNode {
				return d.errorf(val, "processors must be a mapping of names to processors")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				p, err := d.processor(ctx, val.Content[j], val.Content[j+1])
				if err != nil {
					return err
				}
				model.Processors = append(model.Processors, p)
			}
		default:
			return d.errorf(key, "unknown field %q", key.Value)
		}
	}
	return nil
}

func (d *decoder) processor(ctx context.Context, key, body *yaml.Node) (*config.Processor, error) {
	name := key.Value
	if body.Kind != yaml.MappingNode {
		return nil, d.errorf(body, "processor %q must be a mapping", name)
	}
	p := &config.Processor{
		Name:   name,
		Source: fmt.Sprintf("%s:%d", d.filename, key.Line),
	}

	for i := 0; i+1 < len(body.Content); i += 2 {
		k, v := body.Content[i], body.Content[i+1]
		var err error
		switch k.Value {
		case "function":
			err = v.Decode(&p.Function)
		case "module":
			err = v.Decode(&p.Module)
		case "args":
			p.Args, err = d.list(v)
		case "init_args":
			p.InitArgs, err = d.list(v)
		case "kwargs":
			p.Kwargs, err = d.mapping(v)
		case "unit":
			var uv config.Value
			if uv, err = d.value(v); err == nil {
				p.Units, err = uv.Strings()
			}
		case "defaults":
			err = v.Decode(&p.Defaults)
		case "attrs", "lh5_attrs":
			var attrs map[string]string
			if err = v.Decode(&attrs); err == nil && len(attrs) > 0 {
				if p.Attrs == nil {
					p.Attrs = make(map[string]string, len(attrs))
				}
				maps.Copy(p.Attrs, attrs)
			}
		default:
			if !ignoredKeys[k.Value] {
				err = fmt.Errorf("unknown field")
			}
		}
		if err != nil {
			return nil, d.errorf(k, "processor %q, %s: %v", name, k.Value, err)
		}
	}

	ctxlog.FromContext(ctx).Debug("Translated processor.",
		"processor", name,
		"function", p.Function,
		"source", p.Source)
	return p, nil
}

func (d *decoder) list(n *yaml.Node) ([]config.Value, error) {
	v, err := d.value(n)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case config.Null:
		return nil, nil
	case config.List:
		return v.List, nil
	default:
		return nil, fmt.Errorf("must be a list, got %s", v.Kind)
	}
}

func (d *decoder) mapping(n *yaml.Node) (map[string]config.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping")
	}
	out := make(map[string]config.Value, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := d.value(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Content[i].Value, err)
		}
		out[n.Content[i].Value] = v
	}
	return out, nil
}

// value converts a scalar or sequence node into a config.Value.
func (d *decoder) value(n *yaml.Node) (config.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.value(n.Alias)
	case yaml.SequenceNode:
		items := make([]config.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return config.Value{}, err
			}
			items[i] = v
		}
		return config.ListValue(items...), nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return config.NullValue(), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return config.Value{}, err
			}
			return config.BoolValue(b), nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return config.Value{}, fmt.Errorf("invalid number %q", n.Value)
			}
			return config.NumberValue(f), nil
		default:
			return config.StringValue(n.Value), nil
		}
	default:
		return config.Value{}, fmt.Errorf("line %d: mappings are not valid argument values", n.Line)
	}
}
