package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vk/dspchain/internal/builder"
	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
	"github.com/vk/dspchain/internal/executor"
	"github.com/vk/dspchain/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	model      *config.Model
	chain      *chain.Chain
	gatherer   *prometheus.Registry
	metrics    *executor.Metrics
	httpServer *http.Server
}

// NewApp loads and builds the configured chain. It returns a fully
// initialized App with its own isolated logger, registry and metrics.
// Chain errors are returned as *config.ConfigError.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with the Go kernels.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		// A kernel table that does not validate is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	loader, err := loaderFor(cfg.ChainPaths)
	if err != nil {
		return nil, err
	}
	model, err := loader.Load(ctx, cfg.ChainPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}
	logger.Debug("Chain loaded and translated into unified model.", "processors", len(model.Processors))

	c, err := builder.Build(ctx, model, reg, builder.Options{
		WaveformLength: cfg.WaveformLength,
		SamplePeriod:   cfg.SamplePeriod,
		Params:         cfg.Params,
	})
	if err != nil {
		return nil, err
	}

	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(collectors.NewGoCollector())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		model:    model,
		chain:    c,
		gatherer: gatherer,
		metrics:  executor.NewMetrics(gatherer),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Chain returns the built chain.
func (a *App) Chain() *chain.Chain {
	return a.chain
}

// Gatherer exposes the application's metrics.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.gatherer
}
