package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/dspchain/internal/ctxlog"
)

// Validate checks every registered kernel for internal consistency: unique
// parameter names, outputs after inputs, defaults only on optional inputs,
// option defaults among their choices and a Run function present.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, k := range r.Kernels() {
		name := k.Name()
		if k.Run == nil {
			errs = append(errs, fmt.Sprintf("kernel '%s': no Run function", name))
		}

		seen := make(map[string]struct{}, len(k.Params))
		sawOutput := false
		outputs := 0
		for _, p := range k.Params {
			if _, dup := seen[p.Name]; dup {
				errs = append(errs, fmt.Sprintf("kernel '%s': duplicate parameter '%s'", name, p.Name))
			}
			seen[p.Name] = struct{}{}

			switch p.Role {
			case Out:
				sawOutput = true
				outputs++
				if p.Optional || p.Default != nil {
					errs = append(errs, fmt.Sprintf("kernel '%s': output '%s' cannot be optional", name, p.Name))
				}
				if p.Shape == Option {
					errs = append(errs, fmt.Sprintf("kernel '%s': output '%s' cannot be an option", name, p.Name))
				}
				if p.UnitFrom != "" {
					if _, ok := seen[p.UnitFrom]; !ok {
						errs = append(errs, fmt.Sprintf("kernel '%s': output '%s' inherits unit from unknown input '%s'", name, p.Name, p.UnitFrom))
					}
				}
			case In:
				if sawOutput {
					errs = append(errs, fmt.Sprintf("kernel '%s': input '%s' follows an output", name, p.Name))
				}
				if p.Default != nil && !p.Optional {
					errs = append(errs, fmt.Sprintf("kernel '%s': input '%s' has a default but is not optional", name, p.Name))
				}
			}

			if p.Shape == Option {
				if len(p.Choices) == 0 {
					errs = append(errs, fmt.Sprintf("kernel '%s': option '%s' has no choices", name, p.Name))
				}
				if p.DefaultChoice != "" && !slices.Contains(p.Choices, p.DefaultChoice) {
					errs = append(errs, fmt.Sprintf("kernel '%s': option '%s' default '%s' is not a choice", name, p.Name, p.DefaultChoice))
				}
			}
		}
		if outputs == 0 {
			errs = append(errs, fmt.Sprintf("kernel '%s': no outputs", name))
		}

		for _, kw := range k.Kwargs {
			if len(kw.Choices) > 0 && !slices.Contains(kw.Choices, kw.Default) {
				errs = append(errs, fmt.Sprintf("kernel '%s': kwarg '%s' default '%s' is not a choice", name, kw.Name, kw.Default))
			}
		}
		if len(k.InitParams) > 0 && k.Init == nil {
			errs = append(errs, fmt.Sprintf("kernel '%s': init parameters declared without Init", name))
		}

		logger.Debug("Validated kernel.", "name", name, "signature", k.Signature())
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
