package builder

import (
	"context"
	"fmt"

	"github.com/vk/dspchain/internal/buffer"
	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
	"github.com/vk/dspchain/internal/registry"
)

// Build compiles model into a runnable chain. Every failure is returned as
// a *config.ConfigError.
func Build(ctx context.Context, model *config.Model, reg *registry.Registry, opts Options) (*chain.Chain, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting chain construction.")

	if err := opts.validate(); err != nil {
		return nil, &config.ConfigError{Err: err}
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	// First pass: bind every processor to its kernel.
	steps := make([]*boundStep, 0, len(model.Processors))
	for i, p := range model.Processors {
		b, err := bindStep(i, p, reg, opts)
		if err != nil {
			return nil, err
		}
		steps = append(steps, b)
	}
	logger.Debug("Build: Binding complete.", "step_count", len(steps))

	// Second pass: link writers to readers and order the steps.
	l, err := link(steps)
	if err != nil {
		return nil, err
	}
	needed, err := l.needed(model.Outputs)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Linking complete.", "needed", len(needed))

	// Third pass: declare variables in dependency order.
	plan, err := declareAll(l, model, opts, needed)
	if err != nil {
		return nil, err
	}
	for _, b := range l.order {
		if !needed[b.name()] {
			logger.Debug("Build: Step not needed by any output, skipping.", "step", b.name())
		}
	}

	c, err := chain.New(plan)
	if err != nil {
		return nil, err
	}
	logger.Info("Build: Chain construction successful.",
		"steps", len(plan.Steps),
		"variables", plan.Table.Len(),
		"outputs", len(plan.Outputs))
	return c, nil
}

func declareAll(l *linked, model *config.Model, opts Options, needed map[string]bool) (*chain.Plan, error) {
	tbl := buffer.NewTable()
	plan := &chain.Plan{
		Table:          tbl,
		WaveformLength: opts.WaveformLength,
		DefaultPeriod:  opts.SamplePeriod,
	}
	var err error
	if plan.Waveform, err = tbl.DeclareInput(chain.InputWaveform, opts.WaveformLength, buffer.Int, ""); err != nil {
		return nil, &config.ConfigError{Err: err}
	}
	if plan.Timestamp, err = tbl.DeclareInput(chain.InputTimestamp, 0, buffer.Real, ""); err != nil {
		return nil, &config.ConfigError{Err: err}
	}
	if plan.Channel, err = tbl.DeclareInput(chain.InputChannel, 0, buffer.Int, ""); err != nil {
		return nil, &config.ConfigError{Err: err}
	}

	d := &declarer{table: tbl, opts: opts}
	for _, b := range l.order {
		step, err := d.declare(b)
		if err != nil {
			return nil, err
		}
		if needed[b.name()] {
			plan.Steps = append(plan.Steps, step)
		}
	}
	plan.Constants = d.constants

	for _, name := range model.Outputs {
		v, err := tbl.Resolve(name)
		if err != nil {
			return nil, &config.ConfigError{Variable: name, Err: fmt.Errorf("requested output: %w", err)}
		}
		out := chain.Output{Name: name, Var: v}
		if w, ok := l.writer[name]; ok {
			out.Attrs = w.proc.Attrs
		}
		plan.Outputs = append(plan.Outputs, out)
	}
	return plan, nil
}
