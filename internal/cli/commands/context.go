// Package commands implements the lineagekit subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/lineagekit/lineagekit/internal/config"
	"github.com/lineagekit/lineagekit/internal/project"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// WithConfig stores the config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// getConfig retrieves the config from the context, falling back to defaults.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ProjectDir: config.DefaultProjectDir,
		Port:       config.DefaultPort,
		Output:     config.DefaultOutput,
	}
}

// getLogger retrieves the logger from the context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// loadProject creates a project from the config and loads its graph.
func loadProject(ctx context.Context) (*project.Project, error) {
	cfg := getConfig(ctx)
	if err := cfg.ValidateProjectDir(); err != nil {
		return nil, err
	}
	p := project.New(cfg.ProjectDir, getLogger(ctx))
	if err := p.Load(); err != nil {
		return nil, err
	}
	return p, nil
}
