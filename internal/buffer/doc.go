// Package buffer holds the variable table of a processing chain and the
// per-worker arena that backs it.
//
// A Table describes every variable once per chain: its kind, length, unit
// and, for views, the slice of the parent it covers. An Arena allocates the
// storage for one worker; it is indexed by variable ID and reused for every
// event that worker processes. Arena.Reset overwrites all derived buffers
// with the not-available sentinel so no event ever observes values left
// behind by the previous one.
package buffer
