package config

import (
	"fmt"
	"strings"
)

// ConfigError reports a chain that cannot be built. Step, Variable and
// Excerpt are filled in when known.
type ConfigError struct {
	Step     string
	Variable string
	Excerpt  string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid chain")
	if e.Step != "" {
		fmt.Fprintf(&b, ": step %q", e.Step)
	}
	if e.Variable != "" {
		fmt.Fprintf(&b, ", variable %q", e.Variable)
	}
	if e.Excerpt != "" {
		fmt.Fprintf(&b, ", in %q", e.Excerpt)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Errorf builds a ConfigError for step with a formatted cause.
func Errorf(step, format string, args ...any) *ConfigError {
	return &ConfigError{Step: step, Err: fmt.Errorf(format, args...)}
}

// ContractError reports a run-time violation of a kernel's contract, such
// as an event whose shape does not match the chain. It aborts processing.
type ContractError struct {
	Step string
	// Event is the zero-based index of the offending event, -1 if unknown.
	Event int64
	Err   error
}

func (e *ContractError) Error() string {
	var b strings.Builder
	b.WriteString("contract violation")
	if e.Event >= 0 {
		fmt.Fprintf(&b, " at event %d", e.Event)
	}
	if e.Step != "" {
		fmt.Fprintf(&b, " in step %q", e.Step)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ContractError) Unwrap() error { return e.Err }
