package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/hcl"
	"github.com/vk/dspchain/internal/yamlspec"
)

// loaderFor picks the loader matching the paths' format. Directories hold
// HCL documents.
func loaderFor(paths []string) (config.Loader, error) {
	var (
		loader config.Loader
		format string
	)
	for _, p := range paths {
		var f string
		switch info, err := os.Stat(p); {
		case err != nil:
			return nil, fmt.Errorf("error accessing path %s: %w", p, err)
		case info.IsDir(), filepath.Ext(p) == hcl.Extension:
			f = "hcl"
		case yamlspec.Supports(p):
			f = "yaml"
		default:
			return nil, fmt.Errorf("unsupported chain file %s: want .hcl, .json, .yaml or .yml", p)
		}
		if format != "" && f != format {
			return nil, fmt.Errorf("chain files mix %s and %s documents", format, f)
		}
		format = f
	}

	switch format {
	case "hcl":
		loader = hcl.NewLoader()
	case "yaml":
		loader = yamlspec.NewLoader()
	default:
		return nil, fmt.Errorf("no chain files given")
	}
	return loader, nil
}
