// Package config loads editor settings from a TOML file with environment
// overrides. The file is optional; missing settings fall back to defaults.
//
// Precedence, lowest to highest: defaults, config file, SLTMX_* variables.
// A .env file in the working directory is folded into the environment
// before overrides are read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the editor core's tunables.
type Config struct {
	// PageSize is the number of units per table page.
	PageSize int `toml:"page_size"`

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	// Backup keeps a .bak copy of the previous file on save.
	Backup bool `toml:"backup"`

	// WatchDebounce coalesces rapid external-change notifications.
	WatchDebounce time.Duration `toml:"-"`

	// WatchDebounceMS is the TOML/env representation of WatchDebounce.
	WatchDebounceMS int `toml:"watch_debounce_ms"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PageSize:        100,
		LogLevel:        "info",
		Backup:          false,
		WatchDebounce:   100 * time.Millisecond,
		WatchDebounceMS: 100,
	}
}

// Load reads settings from path, or from the user config directory when
// path is empty. A missing file is not an error.
func Load(path string) (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "sltmx", "config.toml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.PageSize <= 0 {
		cfg.PageSize = Default().PageSize
	}
	if cfg.WatchDebounceMS < 0 {
		cfg.WatchDebounceMS = Default().WatchDebounceMS
	}
	cfg.WatchDebounce = time.Duration(cfg.WatchDebounceMS) * time.Millisecond
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.PageSize = getEnvInt("SLTMX_PAGE_SIZE", cfg.PageSize)
	cfg.LogLevel = getEnv("SLTMX_LOG_LEVEL", cfg.LogLevel)
	cfg.Backup = getEnvBool("SLTMX_BACKUP", cfg.Backup)
	cfg.WatchDebounceMS = getEnvInt("SLTMX_WATCH_DEBOUNCE_MS", cfg.WatchDebounceMS)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
