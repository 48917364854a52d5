package buffer

import (
	"math"
)

// NotAvailable is the sentinel written to buffers without a valid value.
var NotAvailable = math.NaN()

// Arena owns the storage of every variable of a table for one worker.
type Arena struct {
	table *Table
	roots [][]float64
	views [][]float64
	// scratch holds gathered copies of strided views.
	scratch [][]float64
}

// NewArena allocates storage for all variables currently in t. Views share
// their root's storage; strided views get a scratch buffer used by Gather
// and Scatter.
func NewArena(t *Table) *Arena {
	n := t.Len()
	a := &Arena{
		table:   t,
		roots:   make([][]float64, n),
		views:   make([][]float64, n),
		scratch: make([][]float64, n),
	}
	for _, v := range t.vars {
		if v.Parent == nil {
			a.roots[v.ID] = make([]float64, v.Size())
			a.views[v.ID] = a.roots[v.ID]
		}
	}
	for _, v := range t.vars {
		if v.Parent == nil {
			continue
		}
		root := a.roots[v.Parent.ID]
		if v.Step == 1 {
			a.views[v.ID] = root[v.Start : v.Start+v.Length]
			continue
		}
		a.scratch[v.ID] = make([]float64, v.Length)
		a.views[v.ID] = a.scratch[v.ID]
	}
	a.Reset()
	return a
}

// Table returns the variable table backing the arena.
func (a *Arena) Table() *Table { return a.table }

// Buffer returns the storage bound to v. For strided views this is the
// scratch copy; call Gather before reading it and Scatter after writing it.
func (a *Arena) Buffer(v *Variable) []float64 {
	return a.views[v.ID]
}

// Reset overwrites every derived root buffer with NotAvailable. Input
// buffers are left alone; the engine rebinds them per event.
func (a *Arena) Reset() {
	for _, v := range a.table.vars {
		if v.Parent != nil || v.Input {
			continue
		}
		fill(a.roots[v.ID], NotAvailable)
	}
}

// Gather copies the strided elements of v from its root into the scratch buffer.
func (a *Arena) Gather(v *Variable) {
	if !v.Strided() {
		return
	}
	root := a.roots[v.Parent.ID]
	dst := a.scratch[v.ID]
	for i := range dst {
		dst[i] = root[v.Start+i*v.Step]
	}
}

// Scatter writes the scratch buffer of a strided view back into its root.
func (a *Arena) Scatter(v *Variable) {
	if !v.Strided() {
		return
	}
	root := a.roots[v.Parent.ID]
	src := a.scratch[v.ID]
	for i, x := range src {
		root[v.Start+i*v.Step] = x
	}
}

func fill(buf []float64, x float64) {
	for i := range buf {
		buf[i] = x
	}
}
