package registry

import (
	"fmt"
)

// Call carries the buffers bound to a kernel's parameters for one step of
// one chain instance. Buffers are bound once and refilled per event.
type Call struct {
	Kernel *Kernel
	Step   string
	// State is the value returned by Kernel.Init.
	State any

	bufs    [][]float64
	present []bool
	options []string
	kwargs  map[string]string
}

// NewCall returns a call with no parameters bound.
func NewCall(k *Kernel, step string) *Call {
	n := len(k.Params)
	return &Call{
		Kernel:  k,
		Step:    step,
		bufs:    make([][]float64, n),
		present: make([]bool, n),
		options: make([]string, n),
		kwargs:  make(map[string]string),
	}
}

// Bind attaches buf to the named parameter.
func (c *Call) Bind(name string, buf []float64) {
	i := c.mustIndex(name)
	c.bufs[i] = buf
	c.present[i] = true
}

// BindOption sets the value of an Option parameter.
func (c *Call) BindOption(name, value string) {
	i := c.mustIndex(name)
	c.options[i] = value
	c.present[i] = true
}

// SetKwarg records a keyword option value.
func (c *Call) SetKwarg(name, value string) { c.kwargs[name] = value }

// Has reports whether the named parameter was bound.
func (c *Call) Has(name string) bool { return c.present[c.mustIndex(name)] }

// In returns the buffer bound to an array input.
func (c *Call) In(name string) []float64 { return c.bufs[c.mustIndex(name)] }

// Out returns the buffer bound to an array output.
func (c *Call) Out(name string) []float64 { return c.bufs[c.mustIndex(name)] }

// Scalar returns the value bound to a scalar parameter.
func (c *Call) Scalar(name string) float64 { return c.bufs[c.mustIndex(name)][0] }

// Set writes a scalar output.
func (c *Call) Set(name string, v float64) { c.bufs[c.mustIndex(name)][0] = v }

// Option returns the value of an Option parameter, or its default choice.
func (c *Call) Option(name string) string {
	i := c.mustIndex(name)
	if c.present[i] {
		return c.options[i]
	}
	return c.Kernel.Params[i].DefaultChoice
}

// Kwarg returns a keyword option value, or its registered default.
func (c *Call) Kwarg(name string) string {
	if v, ok := c.kwargs[name]; ok {
		return v
	}
	if kw, ok := c.Kernel.Kwarg(name); ok {
		return kw.Default
	}
	return ""
}

func (c *Call) mustIndex(name string) int {
	i, ok := c.Kernel.indexOf(name)
	if !ok {
		panic(fmt.Sprintf("kernel %s has no parameter %q", c.Kernel.Name(), name))
	}
	return i
}
