// Package config loads server configuration from an optional JSON file,
// with environment variables taking precedence over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string `json:"addr"`

	// ReadTimeoutSec and WriteTimeoutSec bound request handling
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
}

// Config is the top-level configuration
type Config struct {
	Server ServerConfig `json:"server"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 10,
		},
	}
}

// Load reads the configuration file at path (skipped when path is empty)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config values from the environment:
// SALES_API_ADDR, SALES_API_READ_TIMEOUT_SEC, SALES_API_WRITE_TIMEOUT_SEC.
func applyEnv(cfg *Config) {
	if addr, ok := os.LookupEnv("SALES_API_ADDR"); ok && addr != "" {
		cfg.Server.Addr = addr
	}
	if v, ok := os.LookupEnv("SALES_API_READ_TIMEOUT_SEC"); ok {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.Server.ReadTimeoutSec = sec
		}
	}
	if v, ok := os.LookupEnv("SALES_API_WRITE_TIMEOUT_SEC"); ok {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.Server.WriteTimeoutSec = sec
		}
	}
}

// ReadTimeout returns the read timeout as a duration
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}
