// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the ad server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ad server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Geo    GeoConfig    `yaml:"geo"`
	Debug  DebugConfig  `yaml:"debug"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

// RedisConfig holds the shared key-value store settings.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// GeoConfig holds geolocation collaborator settings. With no database path
// the server falls back to a static locator.
type GeoConfig struct {
	DatabasePath          string `yaml:"database_path"`
	DefaultCountry        string `yaml:"default_country"`
	DefaultConnectionType string `yaml:"default_connection_type"`
}

// DebugConfig toggles the optional adstats debug counters in the store.
type DebugConfig struct {
	CacheStats bool `yaml:"cache_stats"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", LogLevel: "info"},
		Redis:  RedisConfig{URL: "redis://localhost:6379/0"},
	}
}

// Load reads the config file at path (optional) and applies environment
// overrides. A .env file in the working directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("ADSERVE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ADSERVE_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("GEOIP_DB_PATH"); v != "" {
		cfg.Geo.DatabasePath = v
	}
	if v := os.Getenv("ADSERVE_DEBUG_CACHE_STATS"); v == "1" || v == "true" {
		cfg.Debug.CacheStats = true
	}

	return cfg, nil
}
