// Package args parses the raw arguments of a chain processor into typed
// values: numeric constants, unit expressions, option strings, variable
// references, array slices and explicit output declarations.
package args
