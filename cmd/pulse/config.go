package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/news-pulse/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type PulseConfig struct {
	DatabaseURL string
	SeedPath    string
}

func (as *AppConfig) Load() (*PulseConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/pulse/.env")
	if err != nil {
		slog.Info("Failed to load .env, continuing with existing environment variables", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "config/seed.yaml"
	}

	return &PulseConfig{
		DatabaseURL: dbURL,
		SeedPath:    seedPath,
	}, nil
}
