package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"kosyak-bot/config"
	"kosyak-bot/core/appbootstrap"
	"kosyak-bot/core/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := utils.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := appbootstrap.Run(ctx, cfg, logger); err != nil {
		logger.Errorf("run: %v", err)
		os.Exit(1)
	}
	logger.Printf("stopped")
}
