package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/GingerImpasto/orangechat/internal/server"
	"github.com/GingerImpasto/orangechat/internal/store"
	"github.com/GingerImpasto/orangechat/pkg/config"
	"github.com/GingerImpasto/orangechat/pkg/logging"
)

func main() {
	bootLogger := logging.New(logging.LevelInfo)

	cfg, err := config.Load(bootLogger, "config")
	if err != nil {
		bootLogger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	st, err := store.Open(logger, cfg.Storage.DSN)
	if err != nil {
		logger.Error("Failed to open store", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := server.NewApp(logger, ctx, cfg, st)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
