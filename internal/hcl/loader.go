package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
	"github.com/vk/dspchain/internal/fsutil"
)

// Extension is the file extension of HCL chain documents.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL chain loader.
func NewLoader() *Loader {
	return &Loader{}
}

var rootSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "outputs"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "processor", LabelNames: []string{"name"}},
	},
}

// processorBlock is the body of a `processor` block. Argument lists stay
// expressions because their elements mix strings and numbers.
type processorBlock struct {
	Function string             `hcl:"function"`
	Module   string             `hcl:"module,optional"`
	Args     hcl.Expression     `hcl:"args,optional"`
	Kwargs   hcl.Expression     `hcl:"kwargs,optional"`
	InitArgs hcl.Expression     `hcl:"init_args,optional"`
	Unit     hcl.Expression     `hcl:"unit,optional"`
	Defaults map[string]float64 `hcl:"defaults,optional"`
	Attrs    map[string]string  `hcl:"attrs,optional"`
}

// Load parses every .hcl file found in paths and merges them in order.
// Directories are walked recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", Extension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.merge(ctx, model, f.Body); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "outputs", len(model.Outputs), "processors", len(model.Processors))
	return model, nil
}

// Parse translates a single in-memory document. filename is only used in
// diagnostics and processor sources.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	model := &config.Model{}
	if err := l.merge(ctx, model, f.Body); err != nil {
		return nil, err
	}
	return model, nil
}

func (l *Loader) merge(ctx context.Context, model *config.Model, body hcl.Body) error {
	logger := ctxlog.FromContext(ctx)

	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return diags
	}

	if attr, ok := content.Attributes["outputs"]; ok {
		var outputs []string
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &outputs); diags.HasErrors() {
			return diags
		}
		model.Outputs = append(model.Outputs, outputs...)
	}

	for _, block := range content.Blocks {
		name := block.Labels[0]
		var pb processorBlock
		if diags := gohcl.DecodeBody(block.Body, nil, &pb); diags.HasErrors() {
			return fmt.Errorf("processor %q: %w", name, diags)
		}
		p, err := translateProcessor(ctx, name, &pb)
		if err != nil {
			return fmt.Errorf("processor %q: %w", name, err)
		}
		p.Source = block.DefRange.String()
		logger.Debug("Translated processor block.", "processor", name, "source", p.Source)
		model.Processors = append(model.Processors, p)
	}
	return nil
}
