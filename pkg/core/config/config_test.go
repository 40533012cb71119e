package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
[general]
name = "voxlate-test"
log_level = "debug"

[server]
port = 9999
read_timeout = "15s"

[providers.deepl]
enabled = true
api_key = "test-key"

[cache]
max_items = 50
ttl = "30s"

[quality]
threshold = 0.9
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.General.Name != "voxlate-test" {
		t.Errorf("Expected name 'voxlate-test', got %s", cfg.General.Name)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout.Duration != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %v", cfg.Server.ReadTimeout.Duration)
	}
	if !cfg.Providers.DeepL.Enabled {
		t.Error("Expected DeepL provider to be enabled")
	}
	if cfg.Providers.DeepL.APIKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got %s", cfg.Providers.DeepL.APIKey)
	}
	if cfg.Cache.MaxItems != 50 {
		t.Errorf("Expected cache max items 50, got %d", cfg.Cache.MaxItems)
	}
	if cfg.Cache.TTL.Duration != 30*time.Second {
		t.Errorf("Expected cache TTL 30s, got %v", cfg.Cache.TTL.Duration)
	}
	if cfg.Quality.Threshold != 0.9 {
		t.Errorf("Expected quality threshold 0.9, got %f", cfg.Quality.Threshold)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("Expected default port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Conversation.MaxHistorySize != 10 {
		t.Errorf("Expected default history size 10, got %d", cfg.Conversation.MaxHistorySize)
	}
	if cfg.Conversation.Expiration.Duration != 30*time.Minute {
		t.Errorf("Expected default expiration 30m, got %v", cfg.Conversation.Expiration.Duration)
	}
	if cfg.Quality.Threshold != 0.8 {
		t.Errorf("Expected default quality threshold 0.8, got %f", cfg.Quality.Threshold)
	}
	if cfg.Batch.ChunkSize != 10 {
		t.Errorf("Expected default batch chunk size 10, got %d", cfg.Batch.ChunkSize)
	}
	if cfg.Cache.Disabled {
		t.Error("Cache should be enabled by default")
	}
	if len(cfg.Routing.EuropeanLanguages) == 0 {
		t.Error("Expected default European language set")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestExpandKey_EnvFallback(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "env-key")

	path := writeTempConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Providers.DeepL.APIKey != "env-key" {
		t.Errorf("Expected API key from environment, got %q", cfg.Providers.DeepL.APIKey)
	}
}
