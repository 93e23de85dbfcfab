// Package config loads server configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/timephased-engine/generic"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type NormalizerConfig struct {
	DayMinutes int    `yaml:"day_minutes"`
	OutputUnit string `yaml:"output_unit"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "timephased.db"},
		Normalizer: NormalizerConfig{
			DayMinutes: generic.CanonicalDayMinutes,
			OutputUnit: string(generic.UnitHours),
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// TIMEPHASED_PORT, TIMEPHASED_DB and TIMEPHASED_DEBUG.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("TIMEPHASED_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("TIMEPHASED_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	cfg.Database.Path = getenvDefault("TIMEPHASED_DB", cfg.Database.Path)
	if v := os.Getenv("TIMEPHASED_DEBUG"); v != "" {
		cfg.Log.Debug, _ = strconv.ParseBool(v)
	}

	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Normalizer.DayMinutes <= 0 {
		return fmt.Errorf("normalizer day_minutes must be positive, got %d", c.Normalizer.DayMinutes)
	}
	if _, err := generic.ParseUnit(c.Normalizer.OutputUnit); err != nil {
		return fmt.Errorf("normalizer output_unit: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
