package buffer

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Sample is any numeric element type an event may carry.
type Sample interface {
	constraints.Integer | constraints.Float
}

// Load copies src into dst converting each element to float64. The lengths
// must match exactly; a mismatch signals an inconsistent chain.
func Load[T Sample](dst []float64, src []T) error {
	if len(dst) != len(src) {
		return fmt.Errorf("length mismatch: buffer holds %d samples, input has %d", len(dst), len(src))
	}
	for i, x := range src {
		dst[i] = float64(x)
	}
	return nil
}
