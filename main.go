package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OliveiraNt/kafka-lens/cmd"
	"github.com/OliveiraNt/kafka-lens/internal/config"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	utils.InitLogger()

	store := config.NewStore(config.FindConfigPath())
	if err := store.Load(); err != nil {
		utils.Logger.Warn("failed to load config file, using defaults", "path", store.Path(), "err", err)
	} else {
		utils.Logger.Info("configuration loaded", "path", store.Path())
	}
	utils.SetLogLevel(store.Get().Log.Level)
	store.OnChange(func(c config.FileConfig) {
		utils.SetLogLevel(c.Log.Level)
	})
	if err := store.Watch(); err != nil {
		utils.Logger.Error("failed to start config watcher", "err", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.StartWeb(ctx, store); err != nil {
		utils.Logger.Error("HTTP server terminated", "err", err)
		os.Exit(1)
	}
}
