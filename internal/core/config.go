package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Store backends.
const (
	StoreYAML   = "yaml"
	StoreSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	LogLevel     string // debug, info, warn, error
	RulebookPath string // empty selects the built-in rulebook
	DataDir      string // YAML data directory, or the directory holding the SQLite file
	Store        string // yaml or sqlite
	ConfigFile   string // TOML file consulted for settings the environment leaves unset
}

// fileConfig is the TOML form. Nil fields were not set in the file.
type fileConfig struct {
	LogLevel *string `toml:"log_level"`
	Rulebook *string `toml:"rulebook"`
	DataDir  *string `toml:"data_dir"`
	Store    *string `toml:"store"`
}

const defaultConfigFile = "visits.toml"

// LoadConfig loads configuration from environment variables, then from the
// TOML config file for anything the environment leaves unset, then defaults.
// A missing config file is not an error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		LogLevel:     os.Getenv("LOG_LEVEL"),
		RulebookPath: os.Getenv("VISITS_RULEBOOK"),
		DataDir:      os.Getenv("VISITS_DATA_DIR"),
		Store:        os.Getenv("VISITS_STORE"),
		ConfigFile:   getEnvOrDefault("VISITS_CONFIG", defaultConfigFile),
	}

	file, err := readConfigFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	fillUnset(&cfg.LogLevel, file.LogLevel)
	fillUnset(&cfg.RulebookPath, file.Rulebook)
	fillUnset(&cfg.DataDir, file.DataDir)
	fillUnset(&cfg.Store, file.Store)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	// DEBUG flag overrides log level
	if os.Getenv("DEBUG") == "1" {
		cfg.LogLevel = "debug"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = ".visits"
	}
	if cfg.Store == "" {
		cfg.Store = StoreYAML
	}

	switch cfg.Store {
	case StoreYAML, StoreSQLite:
	default:
		return nil, fmt.Errorf("unknown store %q: want %s or %s", cfg.Store, StoreYAML, StoreSQLite)
	}
	return cfg, nil
}

func readConfigFile(path string) (*fileConfig, error) {
	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &file, nil
}

func fillUnset(dst *string, value *string) {
	if *dst == "" && value != nil {
		*dst = *value
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
