package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bookmarket/api/internal/config"
	"bookmarket/api/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting bookmarket API...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Log.Apply(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Run the application
	runErr := app.Run(ctx)
	app.Close()
	if runErr != nil {
		log.Fatalf("Application exited with error: %v", runErr)
	}

	log.Info("Application finished successfully")
}
