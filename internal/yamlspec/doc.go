// Package yamlspec implements config.Loader for chain documents written in
// the dictionary form, as YAML or JSON:
//
//	{
//	  "outputs": ["trapEmax"],
//	  "processors": {
//	    "wf_trap": {"function": "trap_filter", "module": "processors",
//	                "args": ["waveform", "8*us", "2*us", "wf_trap"]},
//	    ...
//	  }
//	}
//
// JSON documents are read by the YAML decoder. Documents are walked as
// yaml.Node trees so the processors keep their declaration order.
package yamlspec
