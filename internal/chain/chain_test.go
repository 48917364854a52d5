package chain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
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

func buildReference(t *testing.T, period float64) *chain.Chain {
	t.Helper()
	reg := registry.New()
	processors.Module{}.Register(reg)
	c, err := builder.Build(t.Context(), testutil.ReferenceModel(), reg, builder.Options{
		WaveformLength: testutil.ReferencePulse().Length,
		SamplePeriod:   period,
	})
	require.NoError(t, err)
	return c
}

func TestSchedule(t *testing.T) {
	c := buildReference(t, 100)
	want := []string{
		"bl, bl_sig, bl_slope, bl_intercept",
		"wf_blsub",
		"wf_pz",
		"wf_trap",
		"tp_min, tp_max, trapEmin, trapEmax",
		"tp_0",
		"trapEftp",
		"hist_weights, hist_borders",
	}
	if diff := cmp.Diff(want, c.Schedule()); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteReferencePulse(t *testing.T) {
	c := buildReference(t, 100)
	ev := testutil.ReferencePulse().Event(0, 100)

	require.NoError(t, c.Execute(ev))
	row := c.Project(ev)

	names := make([]string, len(row.Fields))
	for i, f := range row.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, testutil.ReferenceOutputs, names)

	bl, _ := row.Get("bl")
	assert.InDelta(t, 1000, bl.Value.(float64), 1e-9)
	assert.Equal(t, "ADC", bl.Unit)
	assert.Equal(t, "baseline from the pre-trigger samples", bl.Attrs["description"])

	trapEmax, _ := row.Float("trapEmax")
	assert.InDelta(t, 500, trapEmax, 2)

	tpMax, ok := row.Get("tp_max")
	require.True(t, ok)
	idx := tpMax.Value.(int64)
	assert.GreaterOrEqual(t, idx, int64(500))
	assert.Less(t, idx, int64(1000))

	trapEftp, _ := row.Float("trapEftp")
	assert.Equal(t, trapEmax, trapEftp)

	tp0, _ := row.Get("tp_0")
	assert.Equal(t, "ns", tp0.Unit)
	assert.InDelta(t, 49950, tp0.Value.(float64), 1e-6)

	hist, _ := row.Get("hist_weights")
	var total float64
	for _, w := range hist.Value.([]float64) {
		total += w
	}
	assert.Equal(t, 250.0, total)
}

func TestPeriodChangeReevaluatesConstants(t *testing.T) {
	c := buildReference(t, 100)

	slow := testutil.ReferencePulse().Event(0, 200)
	require.NoError(t, c.Execute(slow))
	row := c.Project(slow)
	tp0, _ := row.Float("tp_0")
	assert.InDelta(t, 99900, tp0, 1e-6)
	trapEmax, _ := row.Float("trapEmax")
	assert.InDelta(t, 500, trapEmax, 2)

	fast := testutil.ReferencePulse().Event(1, 100)
	require.NoError(t, c.Execute(fast))
	tp0, _ = c.Project(fast).Float("tp_0")
	assert.InDelta(t, 49950, tp0, 1e-6)
}

func TestCloneIsIndependent(t *testing.T) {
	a := buildReference(t, 100)
	b := a.Clone()

	small := testutil.ReferencePulse()
	small.Amplitude = 100
	require.NoError(t, a.Execute(testutil.ReferencePulse().Event(0, 100)))
	require.NoError(t, b.Execute(small.Event(1, 100)))

	ea, _ := a.Project(&table.Event{SamplePeriod: 100}).Float("trapEmax")
	eb, _ := b.Project(&table.Event{SamplePeriod: 100}).Float("trapEmax")
	assert.InDelta(t, 500, ea, 2)
	assert.InDelta(t, 100, eb, 2)
}

func TestExecuteRejectsWrongLength(t *testing.T) {
	c := buildReference(t, 100)
	ev := &table.Event{Index: 4, Samples: make([]int32, 10), SamplePeriod: 100}

	err := c.Execute(ev)
	var cerr *config.ContractError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, int64(4), cerr.Event)
	assert.ErrorContains(t, err, "chain was built for 2000")
}

func TestExecuteRejectsMissingPeriod(t *testing.T) {
	c := buildReference(t, 0)
	ev := testutil.ReferencePulse().Event(2, 0)

	err := c.Execute(ev)
	var cerr *config.ContractError
	require.True(t, errors.As(err, &cerr))
	assert.ErrorContains(t, err, "positive sample period")
}

func TestPruningKeepsOnlyNeededSteps(t *testing.T) {
	reg := registry.New()
	processors.Module{}.Register(reg)
	m := testutil.ReferenceModel()
	m.Outputs = []string{"bl", "tp_min"}

	c, err := builder.Build(t.Context(), m, reg, builder.Options{WaveformLength: 2000, SamplePeriod: 100})
	require.NoError(t, err)
	assert.NotContains(t, c.Schedule(), "wf_smooth")
	assert.NotContains(t, c.Schedule(), "tp_0")
	assert.Len(t, c.Schedule(), 5)

	ev := testutil.ReferencePulse().Event(0, 100)
	require.NoError(t, c.Execute(ev))
	row := c.Project(ev)
	f, _ := row.Get("tp_min")
	assert.NotEqual(t, table.IntNotAvailable, f.Value)
}

func TestSentinelsPropagate(t *testing.T) {
	reg := registry.New()
	processors.Module{}.Register(reg)
	s := config.StringValue
	m := &config.Model{
		Outputs: []string{"tp_0", "tp_idx", "a"},
		Processors: []*config.Processor{
			{
				Name: "tp_0", Module: "processors", Function: "time_point_thresh",
				Args: []config.Value{s("waveform"), config.NumberValue(1e9), config.NumberValue(0), config.NumberValue(1), s("tp_0")},
			},
			{
				Name: "tp_idx", Module: "processors", Function: "time_point_thresh",
				Args: []config.Value{s("waveform"), config.NumberValue(1e9), config.NumberValue(0), config.NumberValue(1), s("tp_idx(kind='i')")},
			},
			{
				Name: "a", Module: "processors", Function: "fixed_time_pickoff",
				Args: []config.Value{s("waveform"), s("tp_0"), s("'l'"), s("a")},
			},
		},
	}
	c, err := builder.Build(t.Context(), m, reg, builder.Options{WaveformLength: 2000})
	require.NoError(t, err)

	ev := testutil.ReferencePulse().Event(0, 100)
	require.NoError(t, c.Execute(ev))
	row := c.Project(ev)

	tp0, _ := row.Float("tp_0")
	assert.True(t, math.IsNaN(tp0))
	idx, _ := row.Get("tp_idx")
	assert.Equal(t, table.IntNotAvailable, idx.Value)
	a, _ := row.Float("a")
	assert.True(t, math.IsNaN(a))
}

func TestKernelFailuresAreContractErrors(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Kernel{
		Module:   "test",
		Function: "boom",
		Params: []registry.Param{
			{Name: "w_in", Role: registry.In, Shape: registry.Array},
			{Name: "a_out", Role: registry.Out, Shape: registry.Scalar},
		},
		Run: func(c *registry.Call) error {
			if c.In("w_in")[0] > 0 {
				panic("index out of range")
			}
			return errors.New("negative first sample")
		},
	})
	m := &config.Model{
		Outputs: []string{"a"},
		Processors: []*config.Processor{{
			Name: "a", Module: "test", Function: "boom",
			Args: []config.Value{config.StringValue("waveform"), config.StringValue("a")},
		}},
	}
	c, err := builder.Build(t.Context(), m, reg, builder.Options{WaveformLength: 3})
	require.NoError(t, err)

	err = c.Execute(&table.Event{Index: 1, Samples: []int32{1, 2, 3}})
	var cerr *config.ContractError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "a", cerr.Step)
	assert.ErrorContains(t, err, "panicked: index out of range")

	err = c.Execute(&table.Event{Index: 2, Samples: []int32{-1, 2, 3}})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, int64(2), cerr.Event)
	assert.ErrorContains(t, err, "negative first sample")
}

func gridModel() *config.Model {
	s := config.StringValue
	n := config.NumberValue
	step := func(name, function string, unit string, args ...config.Value) *config.Processor {
		p := &config.Processor{Name: name, Module: processors.Name, Function: function, Args: args}
		if unit != "" {
			p.Units = []string{unit}
		}
		return p
	}
	return &config.Model{
		Outputs: []string{"a_full", "a_window", "a_downsample", "tp", "tp_window", "tp_downsample", "a_at_tp", "a_at_tp_window"},
		Processors: []*config.Processor{
			step("a_full", "fixed_time_pickoff", "", s("waveform"), s("60*us + waveform.offset"), s("'n'"), s("a_full")),
			step("a_window", "fixed_time_pickoff", "", s("waveform[400:1900]"), s("60*us + waveform.offset"), s("'n'"), s("a_window")),
			step("a_downsample", "fixed_time_pickoff", "", s("waveform[0:2000:8]"), s("60*us + waveform.offset"), s("'n'"), s("a_downsample")),
			step("tp", "time_point_thresh", "ns", s("waveform"), n(1250), s("40*us+waveform.offset"), n(1), s("tp")),
			step("tp_window", "time_point_thresh", "ns", s("waveform[400:1900]"), n(1250), s("40*us+waveform.offset"), n(1), s("tp_window")),
			step("tp_downsample", "time_point_thresh", "ns", s("waveform[0:2000:8]"), n(1250), s("40*us+waveform.offset"), n(1), s("tp_downsample")),
			step("a_at_tp", "fixed_time_pickoff", "", s("waveform"), s("tp"), s("'n'"), s("a_at_tp")),
			step("a_at_tp_window", "fixed_time_pickoff", "", s("waveform[400:1900]"), s("tp"), s("'n'"), s("a_at_tp_window")),
		},
	}
}

func TestTimesFollowTheCoordinateGrid(t *testing.T) {
	reg := registry.New()
	processors.Module{}.Register(reg)
	c, err := builder.Build(t.Context(), gridModel(), reg, builder.Options{WaveformLength: 2000, SamplePeriod: 100})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		offset float64
	}{
		{name: "waveform starts at zero", offset: 0},
		{name: "waveform starts late", offset: 1000},
		{name: "waveform starts early", offset: -2500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := testutil.ReferencePulse().Event(0, 100)
			ev.Offset = tc.offset
			require.NoError(t, c.Execute(ev))
			row := c.Project(ev)

			aFull, _ := row.Float("a_full")
			aWindow, _ := row.Float("a_window")
			aDown, _ := row.Float("a_downsample")
			assert.InDelta(t, 1500, aFull, 1)
			assert.Equal(t, aFull, aWindow)
			assert.Equal(t, aFull, aDown)

			tp, _ := row.Float("tp")
			tpWindow, _ := row.Float("tp_window")
			tpDown, _ := row.Float("tp_downsample")
			assert.InDelta(t, 49950+tc.offset, tp, 1e-6)
			assert.InDelta(t, tp, tpWindow, 1e-6)
			assert.InDelta(t, tp, tpDown, 8*100)

			atTP, _ := row.Float("a_at_tp")
			atTPWindow, _ := row.Float("a_at_tp_window")
			assert.Equal(t, atTP, atTPWindow)
		})
	}
}

func TestOffsetOfScalarIsRejected(t *testing.T) {
	reg := registry.New()
	processors.Module{}.Register(reg)
	s := config.StringValue
	m := &config.Model{
		Outputs: []string{"a"},
		Processors: []*config.Processor{{
			Name: "a", Module: processors.Name, Function: "fixed_time_pickoff",
			Args: []config.Value{s("waveform"), s("1*us + timestamp.offset"), s("'n'"), s("a")},
		}},
	}
	_, err := builder.Build(t.Context(), m, reg, builder.Options{WaveformLength: 2000, SamplePeriod: 100})
	var cerr *config.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "timestamp", cerr.Variable)
	assert.ErrorContains(t, err, "no sample grid")
}

func TestNoisyStepEnergyAndTiming(t *testing.T) {
	reg := registry.New()
	processors.Module{}.Register(reg)
	s := config.StringValue
	m := &config.Model{
		Outputs: []string{"bl", "bl_sig", "trapEmax", "tp_max"},
		Processors: []*config.Processor{
			{
				Name: "bl, bl_sig, bl_slope, bl_intercept", Module: processors.Name, Function: "linear_slope_fit",
				Args: []config.Value{s("waveform[0:400]"), s("bl"), s("bl_sig"), s("bl_slope"), s("bl_intercept")},
			},
			{
				Name: "wf_blsub", Module: processors.Name, Function: "bl_subtract",
				Args: []config.Value{s("waveform"), s("bl"), s("wf_blsub")},
			},
			{
				Name: "wf_pz", Module: processors.Name, Function: "pole_zero",
				Args: []config.Value{s("wf_blsub"), s("100*ms"), s("wf_pz")},
			},
			{
				Name: "wf_trap", Module: processors.Name, Function: "trap_filter",
				Args: []config.Value{s("wf_pz"), s("8*us"), s("2*us"), s("wf_trap")},
			},
			{
				Name: "tp_min, tp_max, trapEmin, trapEmax", Module: processors.Name, Function: "min_max",
				Args: []config.Value{s("wf_trap"), s("tp_min"), s("tp_max"), s("trapEmin"), s("trapEmax")},
			},
		},
	}
	c, err := builder.Build(t.Context(), m, reg, builder.Options{WaveformLength: 1000, SamplePeriod: 100})
	require.NoError(t, err)

	ev := testutil.NoisyStepEvent(0, 100)
	require.NoError(t, c.Execute(ev))
	row := c.Project(ev)

	bl, _ := row.Float("bl")
	assert.InDelta(t, 1000, bl, 0.1)
	blSig, _ := row.Float("bl_sig")
	assert.InDelta(t, math.Sqrt(1.5), blSig, 0.01)

	trapEmax, _ := row.Float("trapEmax")
	assert.InDelta(t, 500, trapEmax, 1)

	tpMax, ok := row.Get("tp_max")
	require.True(t, ok)
	idx := tpMax.Value.(int64)
	assert.GreaterOrEqual(t, idx, int64(500))
	assert.Less(t, idx, int64(1000))
}
