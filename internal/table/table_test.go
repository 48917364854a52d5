package table

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSource(t *testing.T) {
	ctx := context.Background()
	src := NewSliceSource([]*Event{{Channel: 1}, {Channel: 2}})

	for _, want := range []int{1, 2} {
		ev, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Channel)
	}
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	src.Reset()
	ev, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Channel)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Next(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRowAccessors(t *testing.T) {
	row := &Row{Fields: []Field{
		{Name: "energy", Value: 12.5},
		{Name: "t_max", Value: IntNotAvailable},
		{Name: "wf", Value: []float64{math.NaN(), 1}},
	}}

	v, ok := row.Float("energy")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = row.Float("t_max")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))

	_, ok = row.Float("wf")
	assert.False(t, ok)
	_, ok = row.Get("missing")
	assert.False(t, ok)

	avail := make([]bool, 0, len(row.Fields))
	for _, f := range row.Fields {
		avail = append(avail, f.Available())
	}
	assert.Equal(t, []bool{true, false, true}, avail)
}

func TestMemorySink(t *testing.T) {
	sink := &MemorySink{}
	require.NoError(t, sink.Write(context.Background(), &Row{Index: 3}))
	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].Index)
}
