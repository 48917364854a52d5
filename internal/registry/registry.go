package registry

import (
	"fmt"
	"log/slog"
	"sort"
)

// Module is the interface that every kernel library implements to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered kernels for a single application instance.
type Registry struct {
	kernels map[string]*Kernel
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{kernels: make(map[string]*Kernel)}
}

// Register adds k under its `module.function` key.
func (r *Registry) Register(k *Kernel) {
	name := k.Name()
	if _, exists := r.kernels[name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", name))
	}
	k.buildIndex()
	slog.Debug("Registering kernel.", "name", name, "signature", k.Signature())
	r.kernels[name] = k
}

// Lookup returns the kernel registered for module and function.
func (r *Registry) Lookup(module, function string) (*Kernel, error) {
	k, ok := r.kernels[module+"."+function]
	if !ok {
		return nil, fmt.Errorf("unknown processor %s.%s", module, function)
	}
	return k, nil
}

// Kernels returns every registered kernel sorted by name.
func (r *Registry) Kernels() []*Kernel {
	out := make([]*Kernel, 0, len(r.kernels))
	for _, k := range r.kernels {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
