package yamlspec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/testutil"
)

const referenceYAML = `
outputs: [bl, trapEmax, tp_max, tp_0, trapEftp, hist_weights]
processors:
  tp_0:
    function: time_point_thresh
    module: processors
    args: [wf_blsub, 250, tp_max, 0, tp_0]
    unit: ns
  bl, bl_sig, bl_slope, bl_intercept:
    function: linear_slope_fit
    module: processors
    args: ["waveform[0:400]", bl, bl_sig, bl_slope, bl_intercept]
    unit: [ADC, ADC, ADC, ADC]
    attrs:
      description: baseline from the pre-trigger samples
  wf_blsub:
    function: bl_subtract
    module: processors
    args: [waveform, bl, wf_blsub]
  wf_pz:
    function: pole_zero
    module: processors
    args: [wf_blsub, db.pz_tau*ms, wf_pz]
    defaults: {pz_tau: 10}
    prereqs: [wf_blsub]
  wf_trap:
    function: trap_filter
    module: processors
    args: [wf_pz, 8*us, 2*us, wf_trap]
  tp_min, tp_max, trapEmin, trapEmax:
    function: min_max
    module: processors
    args: [wf_trap, tp_min, tp_max, trapEmin, trapEmax]
  trapEftp:
    function: fixed_time_pickoff
    module: processors
    args: [wf_trap, tp_max, "'h'", trapEftp]
  wf_smooth:
    function: gaussian_filter1d
    module: processors
    args: [wf_blsub, wf_smooth]
    init_args: [1*us, truncate=3]
    kwargs: {mode: reflect}
  hist_weights, hist_borders:
    function: histogram
    module: processors
    args: ["waveform[0:2000:8]", hist_weights(20), hist_borders(21)]
`

var ignoreSource = cmpopts.IgnoreFields(config.Processor{}, "Source")

func TestParseReference(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		data     string
	}{
		{name: "json", filename: "chain.json", data: testutil.ReferenceJSON},
		{name: "yaml", filename: "chain.yaml", data: referenceYAML},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			model, err := NewLoader().Parse(context.Background(), tc.filename, []byte(tc.data))
			require.NoError(t, err)
			if diff := cmp.Diff(testutil.ReferenceModel(), model, ignoreSource, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("parsed model mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, model.Validate())
		})
	}
}

func TestLoadRecordsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(testutil.ReferenceJSON), 0o644))

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, model.Processors)
	assert.Equal(t, path+":4", model.Processors[0].Source)
}

func TestLoadMergesFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "outputs.yaml")
	second := filepath.Join(dir, "steps.yml")
	require.NoError(t, os.WriteFile(first, []byte("outputs: [a]\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(`
outputs: [b]
processors:
  a:
    function: cumsum
    module: processors
    args: [waveform, a]
  b:
    function: cumsum
    module: processors
    args: [a, b]
`), 0o644))

	model, err := NewLoader().Load(context.Background(), first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, model.Outputs)
	require.Len(t, model.Processors, 2)
	assert.Equal(t, "a", model.Processors[0].Name)
	assert.Equal(t, "b", model.Processors[1].Name)
}

func TestParseScalars(t *testing.T) {
	model, err := NewLoader().Parse(context.Background(), "x.yaml", []byte(`
outputs: [x]
processors:
  x:
    function: f
    module: m
    args: [w, 1.5, true, null, "3", [a, b]]
    kwargs: {signature: "(n)->(n)", types: [ff]}
`))
	require.NoError(t, err)
	p := model.Processors[0]
	assert.Equal(t, []config.Value{
		config.StringValue("w"),
		config.NumberValue(1.5),
		config.BoolValue(true),
		config.NullValue(),
		config.StringValue("3"),
		config.ListValue(config.StringValue("a"), config.StringValue("b")),
	}, p.Args)
	assert.Equal(t, config.ListValue(config.StringValue("ff")), p.Kwargs["types"])
}

func TestParseAttrsAlias(t *testing.T) {
	model, err := NewLoader().Parse(context.Background(), "x.json", []byte(`{
  "outputs": ["wf_blsub"],
  "processors": {
    "wf_blsub": {
      "function": "bl_subtract",
      "module": "processors",
      "args": ["waveform[0:100]", "baseline", "wf_blsub"],
      "unit": "ADC",
      "lh5_attrs": {"test_attr": "This is a test"},
      "attrs": {"origin": "baseline"}
    }
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"test_attr": "This is a test", "origin": "baseline"}, model.Processors[0].Attrs)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "syntax", data: "outputs: [a", wantErr: "parse chain"},
		{name: "empty", data: "", wantErr: "empty document"},
		{name: "not a mapping", data: "[1, 2]", wantErr: "must be a mapping"},
		{name: "unknown top-level field", data: "outputs: [a]\nsteps: {}\n", wantErr: `unknown field "steps"`},
		{name: "processors as list", data: "processors: [a]\n", wantErr: "processors must be a mapping"},
		{
			name:    "unknown processor field",
			data:    "processors:\n  a:\n    function: f\n    argz: [w]\n",
			wantErr: `processor "a", argz: unknown field`,
		},
		{
			name:    "args not a list",
			data:    "processors:\n  a:\n    function: f\n    args: w\n",
			wantErr: "must be a list, got string",
		},
		{
			name:    "mapping argument",
			data:    "processors:\n  a:\n    function: f\n    args: [{x: 1}]\n",
			wantErr: "mappings are not valid argument values",
		},
		{
			name:    "bad defaults",
			data:    "processors:\n  a:\n    function: f\n    defaults: {tau: fast}\n",
			wantErr: `processor "a", defaults`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Parse(context.Background(), "chain.yaml", []byte(tc.data))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("a/chain.JSON"))
	assert.True(t, Supports("chain.yml"))
	assert.False(t, Supports("chain.hcl"))
}
