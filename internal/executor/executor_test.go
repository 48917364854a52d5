package executor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dspchain/internal/builder"
	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/processors"
	"github.com/vk/dspchain/internal/registry"
	"github.com/vk/dspchain/internal/table"
	"github.com/vk/dspchain/internal/testutil"
)

const period = 100

func buildChain(t *testing.T, model *config.Model, length int) *chain.Chain {
	t.Helper()
	reg := registry.New()
	processors.Module{}.Register(reg)
	c, err := builder.Build(context.Background(), model, reg, builder.Options{
		WaveformLength: length,
		SamplePeriod:   period,
	})
	require.NoError(t, err)
	return c
}

func referenceChain(t *testing.T) *chain.Chain {
	return buildChain(t, testutil.ReferenceModel(), testutil.ReferencePulse().Length)
}

// sequential processes events one by one on a single clone.
func sequential(t *testing.T, c *chain.Chain, events []*table.Event) []*table.Row {
	t.Helper()
	c = c.Clone()
	rows := make([]*table.Row, len(events))
	for i, ev := range events {
		require.NoError(t, c.Execute(ev))
		rows[i] = c.Project(ev)
	}
	return rows
}

var equateNaN = cmpopts.EquateNaNs()

func TestRunMatchesSequential(t *testing.T) {
	c := referenceChain(t)
	events := testutil.Events(40, period)
	want := sequential(t, c, events)

	for _, workers := range []int{1, 3, 8} {
		sink := &table.MemorySink{}
		summary, err := New(c, workers, nil).Run(context.Background(), table.NewSliceSource(events), sink)
		require.NoError(t, err)

		assert.Equal(t, int64(len(events)), summary.Events)
		assert.Equal(t, workers, summary.Workers)
		assert.NotEmpty(t, summary.RunID)
		if diff := cmp.Diff(want, sink.Rows(), equateNaN); diff != "" {
			t.Errorf("workers=%d: rows mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestRunKeepsSourceIndex(t *testing.T) {
	c := referenceChain(t)
	events := testutil.Events(6, period)
	for i, ev := range events {
		ev.Index = int64(1000 + 10*i)
	}

	sink := &table.MemorySink{}
	_, err := New(c, 3, nil).Run(context.Background(), table.NewSliceSource(events), sink)
	require.NoError(t, err)

	rows := sink.Rows()
	require.Len(t, rows, len(events))
	for i, row := range rows {
		assert.Equal(t, int64(1000+10*i), row.Index)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	c := referenceChain(t)
	src := table.NewSliceSource(testutil.Events(10, period))
	ex := New(c, 4, nil)

	first := &table.MemorySink{}
	_, err := ex.Run(context.Background(), src, first)
	require.NoError(t, err)

	src.Reset()
	second := &table.MemorySink{}
	_, err = ex.Run(context.Background(), src, second)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Rows(), second.Rows(), equateNaN); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestRunAbortsOnContractError(t *testing.T) {
	c := referenceChain(t)
	events := testutil.Events(30, period)
	events[12] = &table.Event{Index: 12, Samples: make([]int32, 10), SamplePeriod: period}

	sink := &table.MemorySink{}
	summary, err := New(c, 4, nil).Run(context.Background(), table.NewSliceSource(events), sink)
	require.Error(t, err)

	var cerr *config.ContractError
	require.True(t, errors.As(err, &cerr), "want *config.ContractError, got %T", err)
	assert.Equal(t, int64(12), cerr.Event)

	rows := sink.Rows()
	assert.LessOrEqual(t, len(rows), 12)
	assert.Equal(t, int64(len(rows)), summary.Events)
	for i, row := range rows {
		assert.Equal(t, int64(i), row.Index)
	}
}

type failingSource struct {
	events []*table.Event
	failAt int
	pos    int
}

func (s *failingSource) Next(ctx context.Context) (*table.Event, error) {
	if s.pos == s.failAt {
		return nil, errors.New("disk on fire")
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func TestRunStopsOnSourceError(t *testing.T) {
	c := referenceChain(t)
	src := &failingSource{events: testutil.Events(5, period), failAt: 3}

	sink := &table.MemorySink{}
	_, err := New(c, 2, nil).Run(context.Background(), src, sink)
	require.Error(t, err)
	assert.ErrorContains(t, err, "read event 3: disk on fire")
	assert.LessOrEqual(t, len(sink.Rows()), 3)
}

type failingSink struct {
	table.MemorySink
	failAt int64
}

func (s *failingSink) Write(ctx context.Context, row *table.Row) error {
	if row.Index == s.failAt {
		return errors.New("sink full")
	}
	return s.MemorySink.Write(ctx, row)
}

func TestRunStopsOnSinkError(t *testing.T) {
	c := referenceChain(t)
	sink := &failingSink{failAt: 4}

	summary, err := New(c, 3, nil).Run(context.Background(), table.NewSliceSource(testutil.Events(20, period)), sink)
	require.Error(t, err)
	assert.ErrorContains(t, err, "write event 4: sink full")
	assert.Equal(t, int64(4), summary.Events)
	assert.Len(t, sink.Rows(), 4)
}

func TestRunHonoursCancellation(t *testing.T) {
	c := referenceChain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(c, 2, nil).Run(ctx, table.NewSliceSource(testutil.Events(5, period)), &table.MemorySink{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunMetrics(t *testing.T) {
	m := config.Model{
		Outputs: []string{"wf_sum", "tp_late"},
		Processors: []*config.Processor{
			{
				Name: "wf_sum", Module: processors.Name, Function: "cumsum",
				Args: []config.Value{config.StringValue("waveform"), config.StringValue("wf_sum")},
			},
			{
				// The threshold is never crossed, so every event projects the sentinel.
				Name: "tp_late", Module: processors.Name, Function: "time_point_thresh",
				Args: []config.Value{
					config.StringValue("waveform"), config.NumberValue(math.MaxInt32),
					config.NumberValue(0), config.NumberValue(1), config.StringValue("tp_late"),
				},
			},
		},
	}
	c := buildChain(t, &m, testutil.ReferencePulse().Length)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	_, err := New(c, 2, metrics).Run(context.Background(), table.NewSliceSource(testutil.Events(7, period)), &table.MemorySink{})
	require.NoError(t, err)

	assert.Equal(t, 7.0, promtest.ToFloat64(metrics.EventsProcessed))
	assert.Equal(t, 7.0, promtest.ToFloat64(metrics.OutputsUnavailable.WithLabelValues("tp_late")))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.OutputsUnavailable.WithLabelValues("wf_sum")))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.ContractViolations))

	expected := `
# HELP dspchain_events_processed_total Events run through the chain and written to the sink.
# TYPE dspchain_events_processed_total counter
dspchain_events_processed_total 7
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "dspchain_events_processed_total"))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.ProcessingSeconds))
}

func TestContractViolationMetric(t *testing.T) {
	c := referenceChain(t)
	metrics := NewMetrics(nil)
	events := []*table.Event{{Index: 0, Samples: make([]int32, 3), SamplePeriod: period}}

	_, err := New(c, 1, metrics).Run(context.Background(), table.NewSliceSource(events), &table.MemorySink{})
	require.Error(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.ContractViolations))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.EventsProcessed))
}
