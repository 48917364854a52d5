package config

import (
	"context"
)

// Loader is the interface for a format-specific chain loader.
type Loader interface {
	// Load reads the chain documents at paths and translates them into the
	// format-agnostic model. Multiple paths are merged in order.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
