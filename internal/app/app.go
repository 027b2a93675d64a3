package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	level    *slog.LevelVar
	registry *registry.Registry
	doc      *config.Document
	config   *Config
}

// NewApp is the constructor for the main application. It loads the
// configuration document and builds an isolated logger and registry. A
// registry that fails validation is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger, level := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	doc, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "nodes", doc.Len())

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		level:    level,
		registry: reg,
		doc:      doc,
		config:   cfg,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Document returns the loaded configuration document.
func (a *App) Document() *config.Document {
	return a.doc
}
