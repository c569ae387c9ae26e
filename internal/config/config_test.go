package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Related.Provider != "newsapi" {
		t.Errorf("expected provider 'newsapi', got %q", cfg.Related.Provider)
	}
	if cfg.Related.PageSize != 3 {
		t.Errorf("expected page size 3, got %d", cfg.Related.PageSize)
	}
	if cfg.Related.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Related.Timeout)
	}
	if cfg.Related.NewsAPI.APIKeyEnv != "NEWSAPI_KEY" {
		t.Errorf("expected NEWSAPI_KEY, got %q", cfg.Related.NewsAPI.APIKeyEnv)
	}
	if cfg.Fetch.Enabled {
		t.Error("expected URL fetch to be disabled by default")
	}
	if !cfg.History.Enabled {
		t.Error("expected history to be enabled by default")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit.PerSecond != 1 || cfg.Server.RateLimit.Burst != 3 {
		t.Errorf("unexpected rate limit %+v", cfg.Server.RateLimit)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
related:
  provider: feed
  cache_ttl: 0s
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Related.Provider != "feed" {
		t.Errorf("expected provider 'feed', got %q", cfg.Related.Provider)
	}
	if cfg.Related.CacheTTL != 0 {
		t.Errorf("expected cache disabled, got %s", cfg.Related.CacheTTL)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Model.VectorizerPath != "models/vectorizer.json" {
		t.Errorf("expected default vectorizer path, got %q", cfg.Model.VectorizerPath)
	}
	if cfg.Related.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %s", cfg.Related.Timeout)
	}
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	if _, err := parse([]byte("related:\n  provider: bing\n")); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestParseRejectsBadPort(t *testing.T) {
	if _, err := parse([]byte("server:\n  port: 70000\n")); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Model.ClassifierPath != "models/classifier.json" {
		t.Errorf("unexpected classifier path %q", cfg.Model.ClassifierPath)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestResolveConfigPathNoneFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path, err := ResolveConfigPath("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config path, got %q", path)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Server: Server{Host: "0.0.0.0", Port: 8080}}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}
