package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/dag"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/transform"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	logCloser io.Closer
	config    *Config
	doc       *config.Document
	plan      *plan.BuildPlan
	registry  *registry.Registry
	executor  *dag.Executor
}

// NewApp loads the configuration document, normalizes it into a build plan
// and registers its tasks. A document that cannot be located or read is a
// fatal startup error.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger, closer := newLogger(cfg.LogLevel, cfg.LogFormat, outW, cfg.LogFile)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	path, err := config.Locate(cfg.ConfigPath, cfg.WorkDir)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to locate configuration: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	doc, err := loader.Load(ctx, path)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "path", path)

	p, err := plan.Normalize(ctx, doc)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to normalize configuration: %w", err)
	}

	suite := transform.NewSuite(p)
	suite.SetConcurrency(cfg.Workers)
	reg := registry.Build(ctx, p, suite)
	logger.Debug("Tasks registered.", "count", len(reg.Names()))

	return &App{
		outW:      outW,
		logger:    logger,
		logCloser: closer,
		config:    cfg,
		doc:       doc,
		plan:      p,
		registry:  reg,
		executor:  dag.NewExecutor(reg, cfg.Workers),
	}, nil
}

// Context attaches the application logger to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Plan returns the normalized build plan.
func (a *App) Plan() *plan.BuildPlan {
	return a.plan
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// TaskGraph returns the dependency graph of every registered task.
func (a *App) TaskGraph() (*dag.Graph, error) {
	return a.executor.Graph(registry.AggregateAll)
}

// Close releases the log file, if any.
func (a *App) Close() error {
	return a.logCloser.Close()
}
