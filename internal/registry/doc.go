// Package registry maps `module.function` names used in chain documents to
// the compiled kernels that implement them.
//
// A Kernel describes its parameters (direction, shape, element kind, how
// output lengths follow from input lengths) so the builder can check a
// chain against it before any event is processed. At run time the engine
// hands each kernel a Call holding the buffers bound to its parameters.
//
// The registry is populated once at startup and validated with Validate.
// Registering the same name twice is a programmer error and panics.
package registry
