package app

import (
	"context"
	"fmt"

	"github.com/vk/dspchain/internal/ctxlog"
	"github.com/vk/dspchain/internal/executor"
	"github.com/vk/dspchain/internal/table"
)

// Run processes every event of src through the chain and writes the rows
// to sink.
func (a *App) Run(ctx context.Context, src table.Source, sink table.Sink) (executor.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.MetricsPort > 0 {
		a.startHealthcheckServer(ctx, a.config.MetricsPort)
		defer a.closeHealthcheckServer(ctx)
	}

	a.logger.Info("Processing chain ready.", "outputs", a.chain.Outputs(), "steps", a.chain.Schedule())
	a.logger.Info("🚀 Starting concurrent execution...")
	summary, err := executor.New(a.chain, a.config.Workers, a.metrics).Run(ctx, src, sink)
	if err != nil {
		return summary, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "events", summary.Events, "elapsed", summary.Elapsed)

	a.logger.Debug("App.Run method finished.")
	return summary, nil
}
