// Package app wires the registry, the optimizer and the process I/O
// together. The engine itself performs no I/O; reading the template and
// writing the result happen here, at the caller boundary.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/avmopt/internal/avm"
	"github.com/vk/avmopt/internal/ctxlog"
	"github.com/vk/avmopt/internal/optimize"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer // optimized template output
	errW      io.Writer // logs and report
	logger    *slog.Logger
	registry  *avm.Registry
	optimizer *optimize.Optimizer
	config    *Config
}

// NewApp is the constructor for the main application. It builds an isolated
// logger and loads the module registry: the embedded builtin catalog plus,
// when configured, extra manifests from a registry directory. A registry
// load failure is fatal; the engine must not start without a valid catalog,
// so this panics and main recovers for a clean exit message.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	entries, err := avm.BuiltinEntries()
	if err != nil {
		panic(fmt.Errorf("failed to load builtin registry: %w", err))
	}
	if cfg.RegistryPath != "" {
		extra, err := avm.LoadDir(ctx, cfg.RegistryPath)
		if err != nil {
			panic(fmt.Errorf("failed to load registry manifests: %w", err))
		}
		entries = append(entries, extra...)
	}
	registry, err := avm.NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	logger.Debug("Module registry initialized.", "modules", registry.Len())

	return &App{
		outW:      outW,
		errW:      errW,
		logger:    logger,
		registry:  registry,
		optimizer: optimize.New(registry),
		config:    cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *avm.Registry {
	return a.registry
}

// Run reads the template, optimizes it, and writes the result. On a parse
// failure nothing is written; the caller keeps its original text.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	src, err := os.ReadFile(a.config.TemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	a.logger.Info("Optimizing template.", "path", a.config.TemplatePath, "bytes", len(src))

	result, err := a.optimizer.Optimize(ctx, string(src), optimize.Config{
		Environment:      optimize.Environment(a.config.Environment),
		CostOptimization: a.config.CostOptimization,
		SecurityFocus:    a.config.SecurityFocus,
	})
	if err != nil {
		return fmt.Errorf("optimization failed for %s: %w", a.config.TemplatePath, err)
	}

	if a.config.OutPath != "" {
		if err := os.WriteFile(a.config.OutPath, []byte(result.TemplateAfter), 0o644); err != nil {
			return fmt.Errorf("failed to write optimized template: %w", err)
		}
		a.logger.Info("Wrote optimized template.", "path", a.config.OutPath)
	} else {
		if _, err := io.WriteString(a.outW, result.TemplateAfter); err != nil {
			return err
		}
	}

	if a.config.ShowReport {
		if err := result.WriteReport(a.errW); err != nil {
			return err
		}
	}
	a.logger.Info("Optimization complete.",
		"removed", result.Summary.Removed,
		"substituted", result.Summary.Substituted,
		"flipped", result.Summary.Flipped,
		"skipped", result.Summary.Skipped,
	)
	return nil
}
