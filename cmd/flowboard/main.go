package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/flowboard/adapter/cli"
	"github.com/felixgeelhaar/flowboard/adapter/cli/status"
	"github.com/felixgeelhaar/flowboard/adapter/cli/task"
	"github.com/felixgeelhaar/flowboard/adapter/cli/tenant"
	"github.com/felixgeelhaar/flowboard/internal/app"
	"github.com/felixgeelhaar/flowboard/pkg/config"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	// Setup logger
	logCfg := observability.DefaultLogConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	// Deliver outbox events while the command runs
	if cfg.OutboxProcessorEnabled {
		container.OutboxProcessor.Start(ctx)
		defer container.OutboxProcessor.Stop()
	}

	cliApp, err := cli.NewAppFromContainer(container)
	if err != nil {
		logger.Error("failed to initialize cli", "error", err)
		return 1
	}
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(status.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(tenant.Cmd)

	// Execute CLI
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
