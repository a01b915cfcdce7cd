package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBURL             string        `envconfig:"DB_URL" required:"true"`
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:"localhost:3000"`
	DraftDBPath       string        `envconfig:"DRAFT_DB_PATH" default:"./data/drafts.db"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	DraftWriteTimeout time.Duration `envconfig:"DRAFT_WRITE_TIMEOUT" default:"3s"`
	MaxRangeDays      int           `envconfig:"MAX_RANGE_DAYS" default:"92"`
}

// loadConfig reads .env (if present) and then the process environment.
func loadConfig() (Config, error) {
	// A missing .env is fine in deployed environments.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
