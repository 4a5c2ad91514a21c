package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds the application configuration. Values come from the
// defaults below, then an optional YAML file named by STEMVERSE_CONFIG,
// then the environment.
type Config struct {
	GeminiAPIKey  string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model         string        `yaml:"model" env:"STEMVERSE_MODEL"`
	SaveDir       string        `yaml:"save_dir" env:"STEMVERSE_SAVE_DIR"`
	Storage       string        `yaml:"storage" env:"STEMVERSE_STORAGE"`
	CatalogPath   string        `yaml:"catalog" env:"STEMVERSE_CATALOG"`
	ToastDuration time.Duration `yaml:"toast_duration" env:"STEMVERSE_TOAST_DURATION"`
	LogFile       string        `yaml:"log_file" env:"STEMVERSE_LOG_FILE"`
	LogLevel      string        `yaml:"log_level" env:"STEMVERSE_LOG_LEVEL"`
	Locale        string        `yaml:"locale" env:"STEMVERSE_LOCALE"`
}

func defaults() Config {
	return Config{
		Model:         "gemini-2.5-flash",
		SaveDir:       ".saves",
		Storage:       StorageFile,
		ToastDuration: 5 * time.Second,
		LogLevel:      "info",
		Locale:        "en",
	}
}

// LoadConfig loads the configuration from the config file and environment.
func LoadConfig() (*Config, error) {
	cfg, err := Load(os.Getenv("STEMVERSE_CONFIG"))
	if err != nil {
		return nil, err
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return cfg, nil
}

// Load builds a Config from defaults, the YAML file at path (if any) and
// the environment. It does not require an API key.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.Storage, StorageFile, StorageSQLite)
	}
	if strings.TrimSpace(c.SaveDir) == "" {
		return fmt.Errorf("save dir must not be empty")
	}
	if c.ToastDuration <= 0 {
		return fmt.Errorf("toast duration must be positive, got %s", c.ToastDuration)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// LogPath is the log file, defaulting to a file in the save dir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.SaveDir, "stemverse.log")
}

// DatabasePath is where the SQLite backend keeps its data.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.SaveDir, "stemverse.db")
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
