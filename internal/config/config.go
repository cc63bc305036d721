package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	defaultEnv           = "dev"
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultMigrationsDir = "./migrations"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	DBPath        string
	Port          string
	CatalogFile   string
	LogLevel      string
	MigrationsDir string
}

// Load reads environment variables, after a best-effort load of ./.env.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an
// error and variables already present in the environment win over the file.
func LoadFrom(dotenvPath string) (Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Config{
		Env:           strings.ToLower(getenv("APP_ENV", defaultEnv)),
		DBPath:        getenv("DB_PATH", defaultDBPath),
		Port:          getenv("PORT", defaultPort),
		CatalogFile:   os.Getenv("CATALOG_FILE"),
		LogLevel:      strings.ToLower(getenv("LOG_LEVEL", defaultLogLevel)),
		MigrationsDir: getenv("MIGRATIONS_DIR", defaultMigrationsDir),
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

// Level returns the configured zerolog level; Load has already validated it.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
