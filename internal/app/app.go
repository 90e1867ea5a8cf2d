package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/workgrid/internal/config"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Request describes one invocation: which stages to chain and the command
// line options layered over the config file.
type Request struct {
	// Stages are chained in order.
	Stages []string
	// Args are positional arguments handed to every stage.
	Args []string
	// Package is the -p value; a leading "!" processes that package alone.
	Package              string
	VersionBump          string
	DisableExternalLinks bool
	// Cwd overrides the workspace root from the config.
	Cwd string
	// DryRun logs external commands instead of running them.
	DryRun bool
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *config.Config
	exec     shellexec.Executor
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Stage output goes to outW and logs to logW. A config section naming an
// unknown stage is a startup error and panics.
func NewApp(outW, logW io.Writer, cfg *config.Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.Log.Level, cfg.Log.Format, cfg.Options.Verbose, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateSections(ctx, cfg.Stages); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
		exec:     &shellexec.Runner{},
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// WithExecutor replaces the process runner. This is primarily for testing.
func (a *App) WithExecutor(exec shellexec.Executor) *App {
	a.exec = exec
	return a
}
