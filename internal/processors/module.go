package processors

import (
	"math"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/registry"
)

// Name is the module name chain documents use to reference these kernels.
const Name = "processors"

// Module registers the built-in kernels.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	for _, k := range []*registry.Kernel{
		linearSlopeFit(),
		blSubtract(),
		poleZero(),
		trapFilter(),
		asymTrapFilter(),
		timePointThresh(),
		fixedTimePickoff(),
		avgCurrent(),
		gaussianFilter1d(),
		minMax(),
		histogram(),
		cumsum(),
	} {
		k.Module = Name
		r.Register(k)
	}
}

// fillNA writes the sentinel into every element of buf.
func fillNA(buf []float64) {
	for i := range buf {
		buf[i] = buffer.NotAvailable
	}
}

// samples converts a sample-count argument to an int, rounding to the
// nearest sample. It fails on NaN and infinities.
func samples(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int(math.Round(v)), true
}
