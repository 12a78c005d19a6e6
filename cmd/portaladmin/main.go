package main

import (
	"context"
	"errors"
	"os"

	"github.com/example/study-portal/internal/bootstrap"
	"github.com/example/study-portal/internal/config"
	"github.com/example/study-portal/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	cli := commandLine{
		accounts: bootstrap.NewAccountService(store, cfg, logger),
		out:      os.Stdout,
	}
	runErr := cli.run(ctx, os.Args)
	if err := store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
	if runErr != nil {
		if !errors.Is(runErr, errHelp) {
			logger.Error("command failed", "error", runErr)
		}
		os.Exit(1)
	}
}
