// Package processors is the built-in kernel library, registered under the
// module name "processors".
//
// Kernels receive every length and time argument already converted to
// samples. Numeric failures (NaN inputs, parameters out of range, no
// crossing found) write buffer.NotAvailable and never abort the event.
package processors
