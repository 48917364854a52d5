package dag

import "strings"

// CycleError reports a dependency cycle. Path starts and ends with the same
// node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}
