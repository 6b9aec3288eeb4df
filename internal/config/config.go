// Package config loads settings from an optional YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// RawYamlConfig mirrors the file layout. Durations and symbols are kept as
// strings until Parse validates them.
type RawYamlConfig struct {
	Addr         string `yaml:"addr"`
	AIDelay      string `yaml:"ai_delay"`
	PlayerSymbol string `yaml:"player_symbol"`
	Heartbeat    string `yaml:"heartbeat"`
	Log          struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
		Output      string `yaml:"output"`
	} `yaml:"log"`
}

// Config is the validated configuration.
type Config struct {
	Addr         string
	AIDelay      time.Duration
	PlayerSymbol domain.Cell
	Heartbeat    time.Duration
	LogLevel     zap.AtomicLevel
	Development  bool
	// LogOutput is a zap sink: "stderr", "stdout" or a file path.
	LogOutput string
}

// Environment variables that override file values.
const (
	EnvAddr         = "TTT_ADDR"
	EnvAIDelay      = "TTT_AI_DELAY"
	EnvPlayerSymbol = "TTT_PLAYER_SYMBOL"
	EnvLogLevel     = "TTT_LOG_LEVEL"
)

func defaults() RawYamlConfig {
	var raw RawYamlConfig
	raw.Addr = ":8080"
	raw.AIDelay = "300ms"
	raw.PlayerSymbol = "X"
	raw.Heartbeat = "15s"
	raw.Log.Level = "info"
	raw.Log.Output = "stderr"
	return raw
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg, err := parse(defaults())
	if err != nil {
		panic(fmt.Sprintf("invalid built-in config: %v", err))
	}
	return cfg
}

// Load reads path (if not empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	raw := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&raw)
	return parse(raw)
}

func applyEnv(raw *RawYamlConfig) {
	if v, ok := os.LookupEnv(EnvAddr); ok {
		raw.Addr = v
	}
	if v, ok := os.LookupEnv(EnvAIDelay); ok {
		raw.AIDelay = v
	}
	if v, ok := os.LookupEnv(EnvPlayerSymbol); ok {
		raw.PlayerSymbol = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		raw.Log.Level = v
	}
}

func parse(raw RawYamlConfig) (Config, error) {
	cfg := Config{Addr: raw.Addr, Development: raw.Log.Development, LogOutput: raw.Log.Output}
	if cfg.Addr == "" {
		return Config{}, errors.New("addr must not be empty")
	}
	var err error
	if cfg.AIDelay, err = time.ParseDuration(raw.AIDelay); err != nil {
		return Config{}, fmt.Errorf("ai_delay: %w", err)
	}
	if cfg.AIDelay < 0 {
		return Config{}, fmt.Errorf("ai_delay must not be negative, got %s", cfg.AIDelay)
	}
	if cfg.Heartbeat, err = time.ParseDuration(raw.Heartbeat); err != nil {
		return Config{}, fmt.Errorf("heartbeat: %w", err)
	}
	if cfg.Heartbeat <= 0 {
		return Config{}, fmt.Errorf("heartbeat must be positive, got %s", cfg.Heartbeat)
	}
	if cfg.PlayerSymbol, err = domain.ParseCell(raw.PlayerSymbol); err != nil {
		return Config{}, fmt.Errorf("player_symbol %q: %w", raw.PlayerSymbol, err)
	}
	if cfg.LogLevel, err = zap.ParseAtomicLevel(raw.Log.Level); err != nil {
		return Config{}, fmt.Errorf("log.level: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger: JSON in production, console output
// in development.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = c.LogLevel
	if c.LogOutput != "" {
		zc.OutputPaths = []string{c.LogOutput}
	}
	return zc.Build()
}
