package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor methods.
//
// Example (~/.flowbaby/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8099
// storage:
//   database_path: /var/lib/flowbaby/summaries.db
// vector:
//   enabled: true
//   embedding_provider: ollama
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - Port must be between 1 and 65535.

type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Vector  VectorConfig  `yaml:"vector"`
}

type ServerConfig struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type StorageConfig struct {
	DatabasePath *string `yaml:"database_path"`
}

type VectorConfig struct {
	Enabled           *bool   `yaml:"enabled"`
	Path              *string `yaml:"path"`
	EmbeddingProvider *string `yaml:"embedding_provider"` // openai or ollama
	OpenAIAPIKey      *string `yaml:"openai_api_key"`
	OpenAIModel       *string `yaml:"openai_model"`
	OllamaURL         *string `yaml:"ollama_url"`
	OllamaModel       *string `yaml:"ollama_model"`
}

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8099
)

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".flowbaby")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.flowbaby/config.yaml.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, configFile, nil
		}
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
	}

	// Validate
	host := cfg.Host()
	if strings.TrimSpace(host) == "" {
		return nil, "", fmt.Errorf("invalid server.host (empty) in %s", configFile)
	}

	port := cfg.Port()
	if port < 1 || port > 65535 {
		return nil, "", fmt.Errorf("invalid server.port %d in %s", port, configFile)
	}

	return cfg, configFile, nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{Server: ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)}}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	// Write with restrictive permissions.
	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil {
		return DefaultHost
	}
	if c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil {
		return DefaultPort
	}
	if c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

// DatabasePath returns the sqlite database path, defaulting under the
// config directory.
func (c *AppConfig) DatabasePath() string {
	if c != nil && c.Storage.DatabasePath != nil {
		if v := strings.TrimSpace(*c.Storage.DatabasePath); v != "" {
			return v
		}
	}
	configDir, _, err := DefaultPaths()
	if err != nil {
		return "./flowbaby.db"
	}
	return filepath.Join(configDir, "summaries.db")
}

// VectorEnabled reports whether summaries should be indexed for semantic
// search. Enabled by default.
func (c *AppConfig) VectorEnabled() bool {
	if c == nil || c.Vector.Enabled == nil {
		return true
	}
	return *c.Vector.Enabled
}

// VectorPath returns the chromem-go persistence path, defaulting under
// the config directory.
func (c *AppConfig) VectorPath() string {
	if c != nil && c.Vector.Path != nil {
		if v := strings.TrimSpace(*c.Vector.Path); v != "" {
			return v
		}
	}
	configDir, _, err := DefaultPaths()
	if err != nil {
		return "./flowbaby_vectors"
	}
	return filepath.Join(configDir, "summary_vectors")
}

func (c *AppConfig) EmbeddingProvider() string {
	if c == nil {
		return "openai"
	}
	return stringOr(c.Vector.EmbeddingProvider, "openai")
}

func (c *AppConfig) OpenAIAPIKey() string {
	if c == nil {
		return ""
	}
	return stringOr(c.Vector.OpenAIAPIKey, "")
}

func (c *AppConfig) OpenAIModel() string {
	if c == nil {
		return "text-embedding-3-small"
	}
	return stringOr(c.Vector.OpenAIModel, "text-embedding-3-small")
}

func (c *AppConfig) OllamaURL() string {
	if c == nil {
		return "http://localhost:11434"
	}
	return stringOr(c.Vector.OllamaURL, "http://localhost:11434")
}

func (c *AppConfig) OllamaModel() string {
	if c == nil {
		return "nomic-embed-text"
	}
	return stringOr(c.Vector.OllamaModel, "nomic-embed-text")
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return fallback
}

func ptr[T any](v T) *T { return &v }
