// Package app wires the chain loaders, the kernel registry, the builder and
// the executor into one application. It defines the App struct, its
// environment-driven configuration, and the run lifecycle, decoupled from
// any specific entrypoint.
package app
