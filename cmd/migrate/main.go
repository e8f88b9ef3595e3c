package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gurkanbulca/projecthub/internal/app"
	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/logger"
)

func main() {
	envFile := flag.String("env-file", getEnv("ENV_FILE", ".env"), "env file to load")
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Println("Running database migrations...")
	if err := app.Migrate(ctx, cfg, logger.New(cfg.App.LogLevel)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
