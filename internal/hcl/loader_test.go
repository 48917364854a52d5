package hcl

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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var ignoreSource = cmpopts.IgnoreFields(config.Processor{}, "Source")

func TestLoadReference(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chain.hcl", testutil.ReferenceHCL)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	if diff := cmp.Diff(testutil.ReferenceModel(), model, ignoreSource, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded model mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, model.Validate())
	assert.Contains(t, model.Processors[0].Source, "chain.hcl:4,")
}

func TestLoadMergesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_outputs.hcl", `outputs = ["a"]`)
	writeFile(t, dir, "b/steps.hcl", `
processor "a" {
  function = "cumsum"
  module   = "processors"
  args     = ["waveform", "a"]
  kwargs   = { signature = "(n)->(n)" }
}
`)
	writeFile(t, dir, "notes.txt", "ignored")

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, model.Outputs)
	require.Len(t, model.Processors, 1)
	assert.Equal(t, config.StringValue("(n)->(n)"), model.Processors[0].Kwargs["signature"])
}

func TestParseValues(t *testing.T) {
	model, err := NewLoader().Parse(context.Background(), "inline.hcl", []byte(`
outputs = ["x"]

processor "x" {
  function  = "f"
  module    = "m"
  args      = ["w", 1.5, true, null, ["a", "b"]]
  init_args = ["sigma=2"]
  kwargs    = { flag = false, n = 3 }
  unit      = ["ns"]
}
`))
	require.NoError(t, err)
	require.Len(t, model.Processors, 1)
	p := model.Processors[0]

	want := []config.Value{
		config.StringValue("w"),
		config.NumberValue(1.5),
		config.BoolValue(true),
		config.NullValue(),
		config.ListValue(config.StringValue("a"), config.StringValue("b")),
	}
	assert.Equal(t, want, p.Args)
	assert.Equal(t, []config.Value{config.StringValue("sigma=2")}, p.InitArgs)
	assert.Equal(t, map[string]config.Value{
		"flag": config.BoolValue(false),
		"n":    config.NumberValue(3),
	}, p.Kwargs)
	assert.Equal(t, []string{"ns"}, p.Units)
	assert.Nil(t, p.Defaults)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: `processor "a" {`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown top-level block",
			content: `step "a" {}`,
			wantErr: "Unsupported block type",
		},
		{
			name: "missing function",
			content: `processor "a" {
  args = ["waveform", "a"]
}`,
			wantErr: `processor "a"`,
		},
		{
			name: "unknown attribute",
			content: `processor "a" {
  function = "cumsum"
  argz     = ["waveform", "a"]
}`,
			wantErr: "Unsupported argument",
		},
		{
			name: "args not a list",
			content: `processor "a" {
  function = "cumsum"
  args     = "waveform"
}`,
			wantErr: "args must be a list",
		},
		{
			name: "kwargs not an object",
			content: `processor "a" {
  function = "cumsum"
  args     = ["waveform", "a"]
  kwargs   = ["mode"]
}`,
			wantErr: "kwargs must be an object",
		},
		{
			name: "unit list with a number",
			content: `processor "a" {
  function = "cumsum"
  args     = ["waveform", "a"]
  unit     = ["ns", 4]
}`,
			wantErr: "unit: element 1 is a number",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "chain.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), path)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadMissingPath(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "error accessing path")
}

func TestLoadEmptyDirectory(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no .hcl files found")
}
