package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigOverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("TEST_QDRANT_HOST", "qdrant.internal")
	path := writeConfig(t, `
server:
  addr: ":9090"
  max_upload_mb: 10
qdrant:
  host: ${TEST_QDRANT_HOST}
  port: 7000
chunking:
  size: 500
  overlap: 50
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Qdrant.Host != "qdrant.internal" || cfg.Qdrant.Port != 7000 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Fatalf("chunking overrides not applied: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("untouched defaults must survive: %+v", cfg.Retrieval)
	}
}

func TestLoadConfigRejectsOverlapAboveSize(t *testing.T) {
	path := writeConfig(t, `
chunking:
  size: 100
  overlap: 100
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for overlap >= size")
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "chunking: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected YAML parse error")
	}
}
