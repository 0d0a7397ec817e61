package main

import (
	"testing"

	"github.com/elchinoo/gemini/internal/config"
)

func TestSplitHosts(t *testing.T) {
	got := splitHosts(" 10.0.0.1, 10.0.0.2 ,,10.0.0.3")
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestApplyFlagOverridesOnlyTouchesChangedFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "read"
	cfg.Concurrency = 16

	changed := func(name string) bool { return name == "seed" }
	applyFlagOverrides(&cfg, flagOverrides{seed: 99, concurrency: 4}, changed)

	if cfg.Mode != "read" {
		t.Fatalf("unchanged mode flag must not overwrite config-file value")
	}
	if cfg.Concurrency != 16 {
		t.Fatalf("unchanged concurrency flag must not overwrite config-file value, got %d", cfg.Concurrency)
	}
	if cfg.Seed != 99 {
		t.Fatalf("changed seed flag must override, got %d", cfg.Seed)
	}
}
