package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/recallhq/recall-go-sdk/core"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := core.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != core.Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "context_budget: 512\nblend_weight: 0.7\ncycle_limit: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := core.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ContextBudget != 512 || cfg.BlendWeight != 0.7 || cfg.CycleLimit != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Model != core.Default().Model {
		t.Errorf("unset field lost its default: %q", cfg.Model)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("blend_weight: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := core.Load(path); err == nil {
		t.Fatal("expected blend_weight outside [0,1] to be rejected")
	}
}

func TestValidateCatchesZeroCycleLimit(t *testing.T) {
	cfg := core.Default()
	cfg.CycleLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero cycle_limit to be rejected")
	}
}
