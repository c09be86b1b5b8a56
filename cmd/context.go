package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/config"
	"github.com/masmgr/gitcommits-go/internal/output"
	"github.com/masmgr/gitcommits-go/internal/service"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across the backend commands.
type CommandContext struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *service.Service
}

// NewCommandContext creates a context from CLI flags.
// It performs configuration loading, logger setup and backend wiring.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	svc, err := service.FromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure backends: %w", err)
	}

	return &CommandContext{
		Config:  cfg,
		Logger:  logger,
		Service: svc,
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     output.ParseFormat(c.String("format")),
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
		ShowFiles:  c.Bool("show-files"),
		Summary:    c.Bool("summary"),
	}
}
