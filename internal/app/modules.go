package app

import (
	"github.com/vk/dspchain/internal/processors"
	"github.com/vk/dspchain/internal/registry"
)

// coreModules is the definitive list of all kernel modules compiled into
// the binary.
var coreModules = []registry.Module{
	processors.Module{},
}
