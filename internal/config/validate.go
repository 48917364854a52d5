package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func modelValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report document field names rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the structural rules of the model: at least one output
// and one processor, required fields present, unit lists matching the
// output names and no output name claimed by two processors.
func (m *Model) Validate() error {
	if m == nil {
		return &ConfigError{Err: errors.New("empty chain")}
	}
	for _, p := range m.Processors {
		if p != nil && len(p.Outputs) == 0 {
			p.Outputs = SplitNames(p.Name)
		}
	}
	if err := modelValidator().Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{
				Step: stepOf(m, fe),
				Err:  fmt.Errorf("field %s failed %q check", fe.Namespace(), fe.Tag()),
			}
		}
		return &ConfigError{Err: err}
	}

	seen := make(map[string]string)
	for _, p := range m.Processors {
		if len(p.Units) > 1 && len(p.Units) != len(p.Outputs) {
			return &ConfigError{
				Step:    p.Name,
				Excerpt: strings.Join(p.Units, ", "),
				Err:     fmt.Errorf("%d units given for %d outputs", len(p.Units), len(p.Outputs)),
			}
		}
		for _, name := range p.Outputs {
			if other, ok := seen[name]; ok {
				return &ConfigError{
					Step:     p.Name,
					Variable: name,
					Err:      fmt.Errorf("already produced by processor %q", other),
				}
			}
			seen[name] = p.Name
		}
	}
	return nil
}

// Processor returns the processor whose output list contains name.
func (m *Model) Processor(name string) (*Processor, bool) {
	for _, p := range m.Processors {
		for _, out := range p.Outputs {
			if out == name {
				return p, true
			}
		}
	}
	return nil, false
}

// UnitFor returns the unit declared for the i-th output of p.
func (p *Processor) UnitFor(i int) string {
	switch {
	case len(p.Units) == 0:
		return ""
	case len(p.Units) == 1:
		return p.Units[0]
	case i < len(p.Units):
		return p.Units[i]
	default:
		return ""
	}
}

func stepOf(m *Model, fe validator.FieldError) string {
	// Namespace looks like "Model.processors[3].module".
	ns := fe.Namespace()
	i := strings.Index(ns, "processors[")
	if i < 0 {
		return ""
	}
	var idx int
	if _, err := fmt.Sscanf(ns[i:], "processors[%d]", &idx); err != nil {
		return ""
	}
	if idx < len(m.Processors) && m.Processors[idx] != nil {
		return m.Processors[idx].Name
	}
	return ""
}
