package buffer

import (
	"fmt"
)

// Table is the registry of variables of one chain.
type Table struct {
	vars   []*Variable
	byName map[string]*Variable
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Variable)}
}

// Declare registers name with the given shape. Declaring an existing name
// is allowed only when the lengths agree; an unset kind or empty unit on
// either side is filled in from the other.
func (t *Table) Declare(name string, length int, kind Kind, unit string) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name cannot be empty")
	}
	if length < 0 {
		return nil, fmt.Errorf("variable %q: negative length %d", name, length)
	}

	if v, ok := t.byName[name]; ok {
		if v.Parent != nil {
			return nil, fmt.Errorf("variable %q is a slice view and cannot be redeclared", name)
		}
		if v.Length != length {
			return nil, fmt.Errorf("variable %q redeclared with shape (%d), previously %s", name, length, v.Shape())
		}
		if kind != Unset {
			if v.Kind != Unset && v.Kind != kind {
				return nil, fmt.Errorf("variable %q redeclared as %s, previously %s", name, kind, v.Kind)
			}
			v.Kind = kind
		}
		if unit != "" && v.Unit == "" {
			v.Unit = unit
		}
		return v, nil
	}

	v := &Variable{
		ID:     len(t.vars),
		Name:   name,
		Kind:   kind,
		Length: length,
		Unit:   unit,
		Step:   1,
		Grid:   WaveformGrid,
	}
	t.vars = append(t.vars, v)
	t.byName[name] = v
	return v, nil
}

// DeclareInput registers a variable filled from the event.
func (t *Table) DeclareInput(name string, length int, kind Kind, unit string) (*Variable, error) {
	v, err := t.Declare(name, length, kind, unit)
	if err != nil {
		return nil, err
	}
	v.Input = true
	return v, nil
}

// Bound is an optional slice bound.
type Bound struct {
	Value int
	Set   bool
}

// At returns a set bound.
func At(v int) Bound { return Bound{Value: v, Set: true} }

// SliceOf registers a view over name following Python slice rules: unset
// bounds cover the whole parent, negative bounds count from the end and the
// step must be positive. Out-of-range bounds are an error, not clamped.
func (t *Table) SliceOf(name string, start, stop Bound, step int) (*Variable, error) {
	parent, err := t.Resolve(name)
	if err != nil {
		return nil, err
	}
	if parent.IsScalar() {
		return nil, fmt.Errorf("cannot slice scalar variable %q", name)
	}
	if step == 0 {
		step = 1
	}
	if step < 0 {
		return nil, fmt.Errorf("slice of %q: step must be positive, got %d", name, step)
	}

	n := parent.Length
	lo, hi := 0, n
	if start.Set {
		lo = start.Value
		if lo < 0 {
			lo += n
		}
	}
	if stop.Set {
		hi = stop.Value
		if hi < 0 {
			hi += n
		}
	}
	if lo < 0 || lo > n || hi < 0 || hi > n {
		return nil, fmt.Errorf("slice %s out of range for %q with length %d", sliceText(start, stop, step), name, n)
	}
	if hi <= lo {
		return nil, fmt.Errorf("slice %s of %q is empty", sliceText(start, stop, step), name)
	}

	length := (hi - lo + step - 1) / step
	key := fmt.Sprintf("%s[%d:%d:%d]", name, lo, hi, step)
	if v, ok := t.byName[key]; ok {
		return v, nil
	}

	// Views of views are flattened onto the owning root.
	root := parent.Root()
	v := &Variable{
		ID:     len(t.vars),
		Name:   key,
		Kind:   parent.Kind,
		Length: length,
		Unit:   parent.Unit,
		Parent: root,
		Start:  parent.Start + lo*parent.Step,
		Step:   parent.Step * step,
		Input:  parent.Input,
		Grid:   parent.Grid.Within(lo, step),
	}
	t.vars = append(t.vars, v)
	t.byName[key] = v
	return v, nil
}

func sliceText(start, stop Bound, step int) string {
	s := "["
	if start.Set {
		s += fmt.Sprint(start.Value)
	}
	s += ":"
	if stop.Set {
		s += fmt.Sprint(stop.Value)
	}
	if step != 1 {
		s += fmt.Sprintf(":%d", step)
	}
	return s + "]"
}

// Resolve returns the variable registered under name.
func (t *Table) Resolve(name string) (*Variable, error) {
	v, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("undeclared variable %q", name)
	}
	return v, nil
}

// Lookup is Resolve without the error.
func (t *Table) Lookup(name string) (*Variable, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// Variables returns all variables in ID order.
func (t *Table) Variables() []*Variable {
	return t.vars
}

// Len returns the number of variables, views included.
func (t *Table) Len() int { return len(t.vars) }
