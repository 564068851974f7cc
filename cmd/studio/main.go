package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/bootstrap"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
	"github.com/GriffinCanCode/AgentOS/studio/internal/singleinstance"
)

func main() {
	manifest := flag.String("manifest", "", "Application manifest (overrides STUDIO_MANIFEST)")
	port := flag.String("port", "", "Renderer bridge port (overrides IPC_PORT)")
	flag.Parse()

	mode := platform.Current()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "studio: %v\n", err)
		os.Exit(1)
	}
	if *manifest != "" {
		cfg.App.Manifest = *manifest
	}
	if *port != "" {
		cfg.IPC.Port = *port
	}

	logger, err := logging.ForMode(mode, cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "studio: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting studio",
		zap.String("identifier", cfg.App.Identifier),
		zap.String("version", cfg.App.Version),
		zap.String("mode", mode.String()),
	)

	err = bootstrap.RunMode(context.Background(), mode, cfg, logger)

	var exitErr *bootstrap.ExitError
	switch {
	case err == nil:
	case errors.Is(err, singleinstance.ErrSecondaryInstance):
		logger.Info("Another instance is running, handed over launch")
		_ = logger.Sync()
		os.Exit(0)
	case errors.As(err, &exitErr):
		_ = logger.Sync()
		os.Exit(exitErr.Code)
	default:
		logger.Fatal("error while running studio application", zap.Error(err))
	}
}
