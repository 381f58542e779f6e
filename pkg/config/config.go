/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/borshkit/pkg/registry"
)

// EnvPrefix prefixes every environment override, e.g. BORSH_PORT or BORSH_LOG_LEVEL.
const EnvPrefix = "BORSH_"

// DefaultMaxInputSize caps request bodies and batch lines at 1 MiB.
const DefaultMaxInputSize = 1 << 20

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the borsh configuration
type Config struct {
	Server   `yaml:",inline"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Codec    Codec    `yaml:"codec"`
	// Schemas are layout tables registered alongside the built-in ones.
	Schemas []registry.Definition `yaml:"schemas,omitempty"`
}

// Server holds where data lives and where the API listens.
type Server struct {
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`
	Port    int    `yaml:"port" env:"PORT"`
	Bind    string `yaml:"bind" env:"BIND"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key" env:"API_KEY"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text|json
}

// Codec controls decoding behaviour of the CLI and API.
type Codec struct {
	Strict       bool  `yaml:"strict" env:"STRICT"`
	MaxInputSize int64 `yaml:"max_input_size" env:"MAX_INPUT_SIZE"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: Server{
			DataDir: "./data",
			Port:    8080,
			Bind:    "127.0.0.1",
		},
		Security: Security{
			APIKey: "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Codec: Codec{
			MaxInputSize: DefaultMaxInputSize,
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Resolve loads configPath when it exists, falls back to defaults otherwise,
// then applies environment overrides and validates the result.
func Resolve(configPath string) (*Config, error) {
	config := DefaultConfig()
	if configPath != "" && ConfigExists(configPath) {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config with BORSH_* environment variables. Unset
// variables leave the current value alone.
func ApplyEnv(config *Config) error {
	targets := []struct {
		prefix string
		v      any
	}{
		{EnvPrefix, &config.Server},
		{EnvPrefix + "SECURITY_", &config.Security},
		{EnvPrefix + "LOG_", &config.Logging},
		{EnvPrefix + "CODEC_", &config.Codec},
	}
	for _, t := range targets {
		if err := env.ParseWithOptions(t.v, env.Options{Prefix: t.prefix}); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if !slices.Contains([]string{"text", "json"}, c.Logging.Format) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Codec.MaxInputSize <= 0 {
		return fmt.Errorf("%w: codec.max_input_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file carries the API key.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration with a generated API key.
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./borsh.yaml"
	}

	// ~/.config/borsh/config.yaml on Linux and macOS
	return filepath.Join(homeDir, ".config", "borsh", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
