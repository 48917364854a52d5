package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dspchain/internal/config"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       config.Value
		wantKind  Kind
		wantName  string
		wantValue float64
		wantText  string
		wantKey   string
		expectErr bool
	}{
		{name: "number", raw: config.NumberValue(3), wantKind: Number, wantValue: 3},
		{name: "bool", raw: config.BoolValue(true), wantKind: Number, wantValue: 1},
		{name: "null", raw: config.NullValue(), wantKind: None},
		{name: "None string", raw: config.StringValue("None"), wantKind: None},
		{name: "numeric string", raw: config.StringValue("0.5"), wantKind: Number, wantValue: 0.5},
		{name: "sample expression", raw: config.StringValue("8*samples"), wantKind: Number, wantValue: 8},
		{name: "variable", raw: config.StringValue("waveform"), wantKind: Var, wantName: "waveform"},
		{name: "quoted option", raw: config.StringValue("'n'"), wantKind: Text, wantText: "n"},
		{name: "double quoted option", raw: config.StringValue(`"reflect"`), wantKind: Text, wantText: "reflect"},
		{name: "time expression", raw: config.StringValue("2*us+8*us-256*ns"), wantKind: Expr},
		{name: "parameter expression", raw: config.StringValue("db.tau*us"), wantKind: Expr},
		{name: "time difference", raw: config.StringValue("8*us-2*us"), wantKind: Expr},
		{name: "offset expression", raw: config.StringValue("52.48*us+waveform.offset"), wantKind: Expr},
		{name: "slice", raw: config.StringValue("waveform[0:8000:8]"), wantKind: Slice, wantName: "waveform"},
		{name: "declaration", raw: config.StringValue("hist_weights(100)"), wantKind: Decl, wantName: "hist_weights"},
		{name: "keyword", raw: config.StringValue("truncate=3"), wantKind: Number, wantValue: 3, wantKey: "truncate"},
		{name: "keyword variable", raw: config.StringValue("w_in = wf_blsub"), wantKind: Var, wantName: "wf_blsub", wantKey: "w_in"},
		{name: "error - unknown unit", raw: config.StringValue("3*furlongs"), expectErr: true},
		{name: "error - malformed", raw: config.StringValue("1600*"), expectErr: true},
		{name: "error - empty", raw: config.StringValue("  "), expectErr: true},
		{name: "error - list", raw: config.ListValue(config.NumberValue(1)), expectErr: true},
		{name: "error - single index", raw: config.StringValue("waveform[3]"), expectErr: true},
		{name: "error - unknown declaration option", raw: config.StringValue("w(10, color='red')"), expectErr: true},
		{name: "error - variable length output", raw: config.StringValue("vov_max_out(20, vector_len=n_max_out)"), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, a.Kind)
			assert.Equal(t, tc.wantName, a.Name)
			assert.Equal(t, tc.wantValue, a.Value)
			assert.Equal(t, tc.wantText, a.Text)
			assert.Equal(t, tc.wantKey, a.Keyword)
		})
	}
}

func TestParseExpressionKeepsPeriodDependence(t *testing.T) {
	a, err := Parse(config.StringValue("1.6*us"))
	require.NoError(t, err)
	require.Equal(t, Expr, a.Kind)
	assert.True(t, a.Expr.PeriodDependent())

	v, err := a.Expr.Eval(16, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100, v, 1e-9)
}

func TestParseSlice(t *testing.T) {
	a, err := Parse(config.StringValue("waveform[:-10]"))
	require.NoError(t, err)
	assert.Nil(t, a.Start)
	require.NotNil(t, a.Stop)
	assert.Equal(t, "-10", a.Stop.String())
	assert.Nil(t, a.Step)

	a, err = Parse(config.StringValue("waveform[0:8000:8]"))
	require.NoError(t, err)
	assert.Equal(t, "0", a.Start.String())
	assert.Equal(t, "8000", a.Stop.String())
	assert.Equal(t, "8", a.Step.String())
}

func TestParseDecl(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		wantLength string
		wantKind   string
		wantUnit   string
	}{
		{name: "length only", raw: "hist_weights(100)", wantLength: "100"},
		{name: "length and kind", raw: "idx(20, 'i')", wantLength: "20", wantKind: "i"},
		{name: "keywords", raw: "w(shape=(50,), dtype='f', unit='ADC')", wantLength: "50", wantKind: "f", wantUnit: "ADC"},
		{name: "scalar", raw: "a_max()", wantLength: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Parse(config.StringValue(tc.raw))
			require.NoError(t, err)
			require.Equal(t, Decl, a.Kind)
			if tc.wantLength == "" {
				assert.Nil(t, a.Length)
			} else {
				require.NotNil(t, a.Length)
				assert.Equal(t, tc.wantLength, a.Length.String())
			}
			assert.Equal(t, tc.wantKind, a.ElemKind)
			assert.Equal(t, tc.wantUnit, a.Unit)
		})
	}
}

func TestParseVectorLenRejected(t *testing.T) {
	_, err := Parse(config.StringValue("vov_max_out(20, vector_len=n_max_out)"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "vector_len is not supported")
}

func TestParseAll(t *testing.T) {
	got, err := ParseAll([]config.Value{
		config.StringValue("wf_blsub"),
		config.StringValue("db.pz.tau"),
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), `argument "db.pz.tau"`)
}
