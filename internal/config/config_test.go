package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "STEMVERSE_MODEL", "STEMVERSE_SAVE_DIR", "STEMVERSE_STORAGE",
		"STEMVERSE_CATALOG", "STEMVERSE_TOAST_DURATION", "STEMVERSE_LOG_FILE",
		"STEMVERSE_LOG_LEVEL", "STEMVERSE_CONFIG",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SaveDir != ".saves" || cfg.Storage != StorageFile || cfg.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ToastDuration != 5*time.Second {
		t.Errorf("ToastDuration = %s", cfg.ToastDuration)
	}
	if cfg.LogPath() != filepath.Join(".saves", "stemverse.log") {
		t.Errorf("LogPath() = %s", cfg.LogPath())
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelInfo {
		t.Errorf("Level() = %v", lvl)
	}
}

func TestLoadConfigRequiresKey(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.GeminiAPIKey != "k" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "stemverse.yaml")
	doc := "save_dir: /tmp/from-file\nstorage: sqlite\ntoast_duration: 2s\nmodel: file-model\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STEMVERSE_MODEL", "env-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SaveDir != "/tmp/from-file" || cfg.Storage != StorageSQLite {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ToastDuration != 2*time.Second {
		t.Errorf("ToastDuration = %s", cfg.ToastDuration)
	}
	if cfg.Model != "env-model" {
		t.Errorf("Model = %q, want env to win", cfg.Model)
	}
	if cfg.DatabasePath() != "/tmp/from-file/stemverse.db" {
		t.Errorf("DatabasePath() = %s", cfg.DatabasePath())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad storage", map[string]string{"STEMVERSE_STORAGE": "redis"}, "unknown storage"},
		{"bad duration", map[string]string{"STEMVERSE_TOAST_DURATION": "soon"}, "parse env:"},
		{"bad level", map[string]string{"STEMVERSE_LOG_LEVEL": "loud"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
