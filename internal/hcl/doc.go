// Package hcl provides the HCL implementation of config.Loader. A chain
// document has a top-level `outputs` list and one `processor "<names>"`
// block per step:
//
//	outputs = ["trapEmax", "tp_0"]
//
//	processor "wf_trap" {
//	  function = "trap_filter"
//	  module   = "processors"
//	  args     = ["wf_pz", "8*us", "2*us", "wf_trap"]
//	}
//
// Argument values are plain literals. Strings carry the argument grammar
// (variables, slices, declarations and unit expressions) and are parsed
// later by the builder.
package hcl
