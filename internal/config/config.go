// Package config loads and persists aslm settings.
//
// Settings come from a YAML file, then environment variables override
// individual keys. A .env file in the working directory is loaded into the
// environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/aslm/internal/types"
)

// DefaultHomePath is the library root used when none is configured.
const DefaultHomePath = "D:/VRChatAssetPack"

// Config holds all settings.
type Config struct {
	HomePath     string `yaml:"homePath"`
	CatalogPath  string `yaml:"catalogPath,omitempty"`
	AutoRegister bool   `yaml:"autoRegister,omitempty"`

	IgnoredPatterns   []string `yaml:"ignoredPatterns,omitempty"`
	AllowedExtensions []string `yaml:"allowedExtensions,omitempty"`

	LogLevel    string `yaml:"logLevel,omitempty"`
	LogFormat   string `yaml:"logFormat,omitempty"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HomePath:    DefaultHomePath,
		CatalogPath: filepath.Join(DefaultDir(), "catalog.yaml"),
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// DefaultDir returns ~/.aslm, or .aslm when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aslm"
	}
	return filepath.Join(home, ".aslm")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// LoadEnvFile loads .env from the working directory if it exists.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Load reads the config file at path. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %s - %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %s - %w", path, err)
		}
	}

	cfg.applyEnv()

	if strings.TrimSpace(cfg.HomePath) == "" {
		cfg.HomePath = DefaultHomePath
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(DefaultDir(), "catalog.yaml")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HomePath = envOr("ASLM_HOME_PATH", c.HomePath)
	c.CatalogPath = envOr("ASLM_CATALOG_PATH", c.CatalogPath)
	c.AutoRegister = envBool("ASLM_AUTO_REGISTER", c.AutoRegister)
	c.LogLevel = envOr("ASLM_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("ASLM_LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = envOr("ASLM_METRICS_ADDR", c.MetricsAddr)
}

// PathFilter returns the listing filter settings.
func (c *Config) PathFilter() *types.PathFilterConfig {
	return &types.PathFilterConfig{
		IgnoredPatterns:   c.IgnoredPatterns,
		AllowedExtensions: c.AllowedExtensions,
	}
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %s - %w", path, err)
	}
	return nil
}

// Store persists setting changes made at runtime.
type Store struct {
	path string

	mu  sync.Mutex
	cfg *Config
}

// NewStore returns a Store writing cfg to path.
func NewStore(path string, cfg *Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// HomePath returns the configured home path.
func (s *Store) HomePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.HomePath
}

// SaveHomePath sets the home path and writes the config file. The in-memory
// value is restored if writing fails.
func (s *Store) SaveHomePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("home path cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg.HomePath
	s.cfg.HomePath = path
	if err := Save(s.path, s.cfg); err != nil {
		s.cfg.HomePath = prev
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
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
