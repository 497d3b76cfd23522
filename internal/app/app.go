package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/graph"
	"github.com/specialistvlad/portflow/internal/loader"
	"github.com/specialistvlad/portflow/internal/metrics"
	"github.com/specialistvlad/portflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	modules  []registry.Module
	registry *registry.Registry
	graph    *graph.Graph
	engine   *engine.Engine
	metrics  *metrics.Observer
}

// NewApp is the constructor for the main application. Results and print
// nodes write to outW, logs go to logW. When no modules are given the core
// modules are registered.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		logger.Debug("Env file loaded.", "path", cfg.EnvFile)
	}

	def, err := loader.Load(ctx, cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph definition: %w", err)
	}
	g, err := graph.Build(def)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	logger.Debug("Graph built.", "nodes", g.Len(), "relations", len(g.Relations()))

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New().Use(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "node_types", reg.Types())

	// Fail at startup rather than mid-run on a type nothing handles.
	var unknown []error
	for _, n := range g.Nodes() {
		if _, err := reg.Resolve(n.Type); err != nil {
			unknown = append(unknown, fmt.Errorf("node %q: %w", n.ID, err))
		}
	}
	if len(unknown) > 0 {
		return nil, errors.Join(unknown...)
	}

	obs := metrics.New()
	eng := engine.New(reg,
		engine.WithObserver(obs),
		engine.WithLenientConfig(cfg.LenientConfig),
		engine.WithRedactLimit(cfg.RedactLimit),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		modules:  modules,
		registry: reg,
		graph:    g,
		engine:   eng,
		metrics:  obs,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the loaded graph.
func (a *App) Graph() *graph.Graph {
	return a.graph
}

// Close releases resources held by modules.
func (a *App) Close() error {
	var errs []error
	for _, m := range a.modules {
		if c, ok := m.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
