/*
Package builder compiles a chain document into an executable chain. It is
the bridge between the format-agnostic model (defined in the 'config'
package) and the execution engine (the 'chain' package).

Compilation is a multi-phase process:

 1. Validation: the model is checked for structural errors (missing fields,
    unit lists that do not match the output names, names produced twice).

 2. Binding: every processor is resolved against the registry and its
    arguments are parsed and assigned to kernel parameters, positionally
    or by keyword. Output positions name the variables a step writes.

 3. Linking: a dependency graph is built from writers to readers of each
    variable. Multiple writers, self reads, undeclared reads and cycles are
    rejected, and the graph is ordered topologically with declaration order
    breaking ties.

 4. Declaration: in dependency order, slices are resolved, output shapes
    are inferred from input lengths or taken from explicit declarations,
    constants are evaluated and kernel checks run.

Only the steps needed by the requested outputs are scheduled, but every
step is validated. Any failure yields a *config.ConfigError and no chain.
*/
package builder
