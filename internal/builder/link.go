package builder

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/dag"
)

// linked is the dependency structure of the bound steps.
type linked struct {
	graph  *dag.Graph
	writer map[string]*boundStep
	// via holds the variables carried by each writer to reader edge.
	via map[[2]string][]string
	// order lists every step in dependency order.
	order []*boundStep
}

func isInput(name string) bool {
	return name == chain.InputWaveform || name == chain.InputTimestamp || name == chain.InputChannel
}

// link builds the writer to reader graph and orders it.
func link(steps []*boundStep) (*linked, error) {
	l := &linked{graph: dag.New(), writer: make(map[string]*boundStep), via: make(map[[2]string][]string)}
	byName := make(map[string]*boundStep, len(steps))

	for _, b := range steps {
		l.graph.AddNode(b.name(), b.index)
		byName[b.name()] = b
		for _, w := range b.writes {
			if isInput(w) {
				return nil, b.fail(w, "", "event inputs cannot be written by a processor")
			}
			if other, ok := l.writer[w]; ok {
				return nil, b.fail(w, "", "variable is also written by %q", other.name())
			}
			l.writer[w] = b
		}
	}

	for _, b := range steps {
		for _, r := range b.reads {
			if isInput(r) {
				continue
			}
			w, ok := l.writer[r]
			if !ok {
				return nil, b.fail(r, "", "undeclared variable: no processor writes it")
			}
			if w == b {
				return nil, b.fail(r, "", "step reads a variable it writes")
			}
			if err := l.graph.AddEdge(w.name(), b.name()); err != nil {
				return nil, &config.ConfigError{Step: b.name(), Err: err}
			}
			edge := [2]string{w.name(), b.name()}
			if !slices.Contains(l.via[edge], r) {
				l.via[edge] = append(l.via[edge], r)
			}
		}
	}

	order, err := l.graph.TopologicalOrder()
	if err != nil {
		cerr := &config.ConfigError{Err: err}
		var cycle *dag.CycleError
		if errors.As(err, &cycle) && len(cycle.Path) > 0 {
			cerr.Step = cycle.Path[0]
			cerr.Variable, cerr.Err = l.describeCycle(cycle.Path)
		}
		return nil, cerr
	}
	l.order = make([]*boundStep, len(order))
	for i, name := range order {
		l.order[i] = byName[name]
	}
	return l, nil
}

// describeCycle labels every edge of path with the variables it carries,
// e.g. "a -[x]-> b -[y]-> a".
func (l *linked) describeCycle(path []string) (string, error) {
	var b strings.Builder
	var vars []string
	b.WriteString(path[0])
	for i := 1; i < len(path); i++ {
		carried := l.via[[2]string{path[i-1], path[i]}]
		for _, v := range carried {
			if !slices.Contains(vars, v) {
				vars = append(vars, v)
			}
		}
		fmt.Fprintf(&b, " -[%s]-> %s", strings.Join(carried, ","), path[i])
	}
	return strings.Join(vars, ", "), fmt.Errorf("cycle detected: %s", b.String())
}

// needed returns the names of the steps the outputs depend on.
func (l *linked) needed(outputs []string) (map[string]bool, error) {
	var roots []string
	for _, name := range outputs {
		if isInput(name) {
			continue
		}
		w, ok := l.writer[name]
		if !ok {
			return nil, &config.ConfigError{Variable: name, Err: errors.New("requested output is not produced by any processor")}
		}
		roots = append(roots, w.name())
	}
	names, err := l.graph.Ancestors(roots...)
	if err != nil {
		return nil, &config.ConfigError{Err: err}
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}
