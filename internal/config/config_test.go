package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test_config.yaml")

	configContent := `
mode: mixed
test_cluster:
  - "127.0.0.1"
drop_schema: true
duration: 30s
concurrency: 8
seed: 1234
`
	if err := os.WriteFile(configFile, []byte(configContent), 0600); err != nil {
		t.Fatalf("write test config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Mode != "mixed" {
		t.Errorf("expected mode 'mixed', got %s", cfg.Mode)
	}
	if len(cfg.TestCluster) != 1 || cfg.TestCluster[0] != "127.0.0.1" {
		t.Errorf("expected test_cluster [127.0.0.1], got %v", cfg.TestCluster)
	}
	if !cfg.DropSchema {
		t.Errorf("expected drop_schema true")
	}
	if cfg.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Concurrency)
	}
	if cfg.Seed != 1234 {
		t.Errorf("expected seed 1234, got %d", cfg.Seed)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Error("expected error for nonexistent config file")
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.TestCluster = []string{"127.0.0.1"}
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.TestCluster = []string{"127.0.0.1"}
	cfg.Mode = "bogus"
	if err := Validate(&cfg); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestValidateRequiresTestCluster(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err == nil {
		t.Fatalf("expected error when test_cluster is empty")
	}
}

func TestValidateRangeOrdering(t *testing.T) {
	cfg := Default()
	cfg.TestCluster = []string{"127.0.0.1"}
	cfg.MinPartitionKeys = 5
	cfg.MaxPartitionKeys = 2
	if err := Validate(&cfg); err == nil {
		t.Fatalf("expected error when max < min")
	}
}

func TestValidateAllowsZeroClusteringKeys(t *testing.T) {
	cfg := Default()
	cfg.TestCluster = []string{"127.0.0.1"}
	cfg.MinClusteringKeys = 0
	cfg.MaxClusteringKeys = 0
	if err := Validate(&cfg); err != nil {
		t.Fatalf("tables with no clustering keys must be allowed: %v", err)
	}
}

func TestValidateRejectsNonPositiveBackoff(t *testing.T) {
	cfg := Default()
	cfg.TestCluster = []string{"127.0.0.1"}
	cfg.MaxMutationRetriesBackoff = 0
	if err := Validate(&cfg); err == nil {
		t.Fatalf("expected error for zero backoff")
	}
}
