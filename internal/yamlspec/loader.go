package yamlspec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
)

// Extensions lists the file extensions handled by the loader.
var Extensions = []string{".json", ".yaml", ".yml"}

// Supports reports whether path has one of Extensions.
func Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Loader reads JSON and YAML chain documents.
type Loader struct{}

// NewLoader creates a new JSON/YAML chain loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads each file in order and merges the documents: outputs are
// appended and processors added in declaration order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	if len(paths) == 0 {
		return nil, fmt.Errorf("no chain files given")
	}
	model := &config.Model{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chain: %w", err)
		}
		if err := l.merge(ctx, model, path, data); err != nil {
			return nil, err
		}
	}

	logger.Debug("YAML loading complete.", "outputs", len(model.Outputs), "processors", len(model.Processors))
	return model, nil
}

// Parse translates a single in-memory document.
func (l *Loader) Parse(ctx context.Context, filename string, data []byte) (*config.Model, error) {
	model := &config.Model{}
	if err := l.merge(ctx, model, filename, data); err != nil {
		return nil, err
	}
	return model, nil
}

func (l *Loader) merge(ctx context.Context, model *config.Model, filename string, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse chain %s: %w", filename, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("parse chain %s: empty document", filename)
	}
	d := &decoder{filename: filename}
	if err := d.document(ctx, doc.Content[0], model); err != nil {
		return fmt.Errorf("in %s: %w", filename, err)
	}
	return nil
}
