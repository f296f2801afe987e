package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	appLogger "github.com/roamwise/go-trip-planner/app/logger"
	"github.com/roamwise/go-trip-planner/config"
	"github.com/roamwise/go-trip-planner/internal/cli"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.Setup(cfg.Mode)
	slog.SetDefault(logger)

	if err := cli.Execute(cfg, logger); err != nil {
		logger.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
