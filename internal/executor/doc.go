// Package executor runs a built chain over a stream of events. One reader
// feeds a pool of workers, each owning a clone of the chain, and a collector
// writes the projected rows to the sink in original event order, exactly
// once each. The first fatal error cancels the run.
package executor
