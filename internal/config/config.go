package config

import (
	"log"
	"os"
)

const (
	defaultDBPath = "./finbox.db"
	defaultPort   = "8080"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env       string
	Port      string
	DBPath    string
	RedisAddr string
	APIToken  string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		Env:       os.Getenv("APP_ENV"),
		Port:      os.Getenv("PORT"),
		DBPath:    os.Getenv("DB_PATH"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		APIToken:  os.Getenv("API_TOKEN"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}

	if cfg.APIToken == "" {
		log.Print("warning: API_TOKEN is not set, the API accepts unauthenticated requests")
	}
	if cfg.RedisAddr == "" {
		log.Print("warning: REDIS_ADDR is not set, using the in-process result cache")
	}

	return cfg
}

// IsDev reports whether the app runs in the local development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
