// Package config loads CLI configuration from an optional YAML file plus
// MANUSCTL_* environment variables, with working defaults so a plain
// invocation against a local backend needs no file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores CLI configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Chat   ChatConfig   `mapstructure:"chat"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig points at the agent backend.
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds the default per-turn mode flags. Command-line flags
// override these per invocation.
type ChatConfig struct {
	DeepThinkingMode     bool `mapstructure:"deep_thinking_mode"`
	SearchBeforePlanning bool `mapstructure:"search_before_planning"`
	Debug                bool `mapstructure:"debug"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

// DefaultConfigDir returns the configuration directory (~/.manusctl).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".manusctl"), nil
}

// Load loads configuration. An explicit configPath must exist; the default
// ~/.manusctl/config.yaml is optional and its absence means defaults plus
// environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("chat.deep_thinking_mode", false)
	v.SetDefault("chat.search_before_planning", false)
	v.SetDefault("chat.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.add_source", false)

	explicit := configPath != ""
	if explicit {
		v.SetConfigFile(configPath)
	} else {
		configDir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("MANUSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}

	switch c.Log.Output {
	case "stdout", "stderr", "discard":
	case "file":
		if c.Log.FilePath == "" {
			return fmt.Errorf("log.file_path is required when output is 'file'")
		}
	default:
		return fmt.Errorf("invalid log output: %s", c.Log.Output)
	}

	return nil
}
