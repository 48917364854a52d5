// Package config defines the format-agnostic model of a processing chain,
// the Loader interface implemented by the HCL and YAML/JSON front ends, and
// the typed errors reported while building and running a chain.
//
// The `config.Model` is the single source of truth for the `builder`
// package. Concrete loaders live in separate packages.
package config
