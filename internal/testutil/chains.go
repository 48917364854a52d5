package testutil

import (
	"github.com/vk/dspchain/internal/config"
)

// ReferenceOutputs are the outputs requested by ReferenceModel.
var ReferenceOutputs = []string{"bl", "trapEmax", "tp_max", "tp_0", "trapEftp", "hist_weights"}

// ReferenceModel returns a typical energy and timing chain. The smoothing
// step is not needed by any output.
func ReferenceModel() *config.Model {
	s := config.StringValue
	return &config.Model{
		Outputs: append([]string(nil), ReferenceOutputs...),
		Processors: []*config.Processor{
			{
				Name:     "tp_0",
				Module:   "processors",
				Function: "time_point_thresh",
				Args:     []config.Value{s("wf_blsub"), config.NumberValue(250), s("tp_max"), config.NumberValue(0), s("tp_0")},
				Units:    []string{"ns"},
			},
			{
				Name:     "bl, bl_sig, bl_slope, bl_intercept",
				Module:   "processors",
				Function: "linear_slope_fit",
				Args:     []config.Value{s("waveform[0:400]"), s("bl"), s("bl_sig"), s("bl_slope"), s("bl_intercept")},
				Units:    []string{"ADC", "ADC", "ADC", "ADC"},
				Attrs:    map[string]string{"description": "baseline from the pre-trigger samples"},
			},
			{
				Name:     "wf_blsub",
				Module:   "processors",
				Function: "bl_subtract",
				Args:     []config.Value{s("waveform"), s("bl"), s("wf_blsub")},
			},
			{
				Name:     "wf_pz",
				Module:   "processors",
				Function: "pole_zero",
				Args:     []config.Value{s("wf_blsub"), s("db.pz_tau*ms"), s("wf_pz")},
				Defaults: map[string]float64{"pz_tau": 10},
			},
			{
				Name:     "wf_trap",
				Module:   "processors",
				Function: "trap_filter",
				Args:     []config.Value{s("wf_pz"), s("8*us"), s("2*us"), s("wf_trap")},
			},
			{
				Name:     "tp_min, tp_max, trapEmin, trapEmax",
				Module:   "processors",
				Function: "min_max",
				Args:     []config.Value{s("wf_trap"), s("tp_min"), s("tp_max"), s("trapEmin"), s("trapEmax")},
			},
			{
				Name:     "trapEftp",
				Module:   "processors",
				Function: "fixed_time_pickoff",
				Args:     []config.Value{s("wf_trap"), s("tp_max"), s("'h'"), s("trapEftp")},
			},
			{
				Name:     "wf_smooth",
				Module:   "processors",
				Function: "gaussian_filter1d",
				Args:     []config.Value{s("wf_blsub"), s("wf_smooth")},
				InitArgs: []config.Value{s("1*us"), s("truncate=3")},
				Kwargs:   map[string]config.Value{"mode": s("reflect")},
			},
			{
				Name:     "hist_weights, hist_borders",
				Module:   "processors",
				Function: "histogram",
				Args:     []config.Value{s("waveform[0:2000:8]"), s("hist_weights(20)"), s("hist_borders(21)")},
			},
		},
	}
}

// ReferenceHCL is ReferenceModel written as an HCL chain document.
const ReferenceHCL = `
outputs = ["bl", "trapEmax", "tp_max", "tp_0", "trapEftp", "hist_weights"]

processor "tp_0" {
  function = "time_point_thresh"
  module   = "processors"
  args     = ["wf_blsub", 250, "tp_max", 0, "tp_0"]
  unit     = "ns"
}

processor "bl, bl_sig, bl_slope, bl_intercept" {
  function = "linear_slope_fit"
  module   = "processors"
  args     = ["waveform[0:400]", "bl", "bl_sig", "bl_slope", "bl_intercept"]
  unit     = ["ADC", "ADC", "ADC", "ADC"]
  attrs = {
    description = "baseline from the pre-trigger samples"
  }
}

processor "wf_blsub" {
  function = "bl_subtract"
  module   = "processors"
  args     = ["waveform", "bl", "wf_blsub"]
}

processor "wf_pz" {
  function = "pole_zero"
  module   = "processors"
  args     = ["wf_blsub", "db.pz_tau*ms", "wf_pz"]
  defaults = {
    pz_tau = 10
  }
}

processor "wf_trap" {
  function = "trap_filter"
  module   = "processors"
  args     = ["wf_pz", "8*us", "2*us", "wf_trap"]
}

processor "tp_min, tp_max, trapEmin, trapEmax" {
  function = "min_max"
  module   = "processors"
  args     = ["wf_trap", "tp_min", "tp_max", "trapEmin", "trapEmax"]
}

processor "trapEftp" {
  function = "fixed_time_pickoff"
  module   = "processors"
  args     = ["wf_trap", "tp_max", "'h'", "trapEftp"]
}

processor "wf_smooth" {
  function  = "gaussian_filter1d"
  module    = "processors"
  args      = ["wf_blsub", "wf_smooth"]
  init_args = ["1*us", "truncate=3"]
  kwargs = {
    mode = "reflect"
  }
}

processor "hist_weights, hist_borders" {
  function = "histogram"
  module   = "processors"
  args     = ["waveform[0:2000:8]", "hist_weights(20)", "hist_borders(21)"]
}
`

// ReferenceJSON is ReferenceModel in the dictionary form, in the same
// declaration order.
const ReferenceJSON = `{
  "outputs": ["bl", "trapEmax", "tp_max", "tp_0", "trapEftp", "hist_weights"],
  "processors": {
    "tp_0": {
      "function": "time_point_thresh",
      "module": "processors",
      "args": ["wf_blsub", 250, "tp_max", 0, "tp_0"],
      "unit": "ns"
    },
    "bl, bl_sig, bl_slope, bl_intercept": {
      "function": "linear_slope_fit",
      "module": "processors",
      "args": ["waveform[0:400]", "bl", "bl_sig", "bl_slope", "bl_intercept"],
      "unit": ["ADC", "ADC", "ADC", "ADC"],
      "attrs": {"description": "baseline from the pre-trigger samples"}
    },
    "wf_blsub": {
      "function": "bl_subtract",
      "module": "processors",
      "args": ["waveform", "bl", "wf_blsub"]
    },
    "wf_pz": {
      "function": "pole_zero",
      "module": "processors",
      "args": ["wf_blsub", "db.pz_tau*ms", "wf_pz"],
      "defaults": {"pz_tau": 10}
    },
    "wf_trap": {
      "function": "trap_filter",
      "module": "processors",
      "args": ["wf_pz", "8*us", "2*us", "wf_trap"]
    },
    "tp_min, tp_max, trapEmin, trapEmax": {
      "function": "min_max",
      "module": "processors",
      "args": ["wf_trap", "tp_min", "tp_max", "trapEmin", "trapEmax"]
    },
    "trapEftp": {
      "function": "fixed_time_pickoff",
      "module": "processors",
      "args": ["wf_trap", "tp_max", "'h'", "trapEftp"]
    },
    "wf_smooth": {
      "function": "gaussian_filter1d",
      "module": "processors",
      "args": ["wf_blsub", "wf_smooth"],
      "init_args": ["1*us", "truncate=3"],
      "kwargs": {"mode": "reflect"}
    },
    "hist_weights, hist_borders": {
      "function": "histogram",
      "module": "processors",
      "args": ["waveform[0:2000:8]", "hist_weights(20)", "hist_borders(21)"]
    }
  }
}`
