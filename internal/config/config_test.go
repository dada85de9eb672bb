package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	if cfg.Server.Port != 3010 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Engine.PatternsPath != "" {
		t.Errorf("default patterns path should be empty, got %q", cfg.Engine.PatternsPath)
	}
	if !cfg.Audit.Enabled {
		t.Error("audit should default to enabled")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("SERIALIZE_NLP", "true")

	cfg := LoadFromEnv()
	if cfg.Server.Port != 8088 {
		t.Errorf("port override not applied: %d", cfg.Server.Port)
	}
	if cfg.Audit.Enabled {
		t.Error("audit override not applied")
	}
	if !cfg.Engine.SerializeNLP {
		t.Error("serialize override not applied")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  port: 9000
  environment: production
engine:
  patterns_path: /etc/cliniredact/patterns.yaml
audit:
  enabled: true
  max_events: 500
log:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Environment != "production" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Engine.PatternsPath != "/etc/cliniredact/patterns.yaml" {
		t.Errorf("unexpected engine config %+v", cfg.Engine)
	}
	if cfg.Audit.MaxEvents != 500 {
		t.Errorf("unexpected audit config %+v", cfg.Audit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
