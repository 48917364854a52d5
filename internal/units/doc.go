// Package units resolves numeric literals that carry a physical unit into
// sample-domain values.
//
// A literal is written in HCL native expression syntax restricted to
// numbers, the four arithmetic operators, parentheses, unit identifiers and
// `db.<name>` parameter references, e.g. `2*us+8*us-256*ns` or `db.tau*us`.
// Each unit identifier evaluates to the number of samples (time units) or
// cycles per sample (frequency units) implied by the sample period of the
// event being processed, so the same parsed Expr is re-evaluated whenever
// the period changes.
package units
