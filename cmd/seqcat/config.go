package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Config holds the settings for a seqcat run. It can be loaded from a JSONC
// file, with command line flags taking precedence.
type Config struct {
	DirectIO  bool   `json:"direct_io"`
	Readahead int    `json:"readahead"`
	Chunk     int    `json:"chunk"`
	Skip      int64  `json:"skip"`
	Hash      string `json:"hash"`
	Out       string `json:"out"`
	Verify    bool   `json:"verify"`
	Segment   int    `json:"segment"`
	Workers   int    `json:"workers"`
	DropCache bool   `json:"drop_cache"`
	LogLevel  string `json:"log_level"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Readahead: 2 << 20,
		Chunk:     64 << 10,
		Hash:      "xxhash",
		Segment:   4 << 20,
		Workers:   4,
		LogLevel:  "info",
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Readahead < 0 {
		return fmt.Errorf("readahead cannot be negative")
	}
	if c.Chunk <= 0 {
		return fmt.Errorf("chunk must be positive")
	}
	if c.Skip < 0 {
		return fmt.Errorf("skip cannot be negative")
	}
	if _, err := newHash(c.Hash); err != nil {
		return err
	}
	if c.Verify {
		if c.Hash == "none" {
			return fmt.Errorf("verify requires a hash")
		}
		if c.Segment <= 0 {
			return fmt.Errorf("segment must be positive")
		}
		if c.Workers <= 0 {
			return fmt.Errorf("workers must be positive")
		}
	}
	return nil
}

// loadConfigFile reads a JSONC config file over base.
func loadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return parseConfig(data, base)
}

// parseConfig overlays the JSONC document in data onto base.
func parseConfig(data []byte, base Config) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	cfg := base
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}
