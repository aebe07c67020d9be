package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
}

func TestLoadOverridesOnlyPresentSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
grid:
  size: 32
economy:
  batchSize: 64
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Grid.Size != 32 {
		t.Errorf("Grid.Size = %d, want 32", cfg.Grid.Size)
	}
	if cfg.Economy.BatchSize != 64 {
		t.Errorf("Economy.BatchSize = %d, want 64", cfg.Economy.BatchSize)
	}

	// Sections absent from the file keep their package defaults.
	def := Default()
	if cfg.Economy.MinBatch != def.Economy.MinBatch {
		t.Errorf("Economy.MinBatch = %d, want default %d", cfg.Economy.MinBatch, def.Economy.MinBatch)
	}
	if cfg.Gate != def.Gate {
		t.Errorf("Gate = %+v, want untouched default %+v", cfg.Gate, def.Gate)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}

func TestValidateRejectsNonPositiveGridSize(t *testing.T) {
	cfg := Default()
	cfg.Grid.Size = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for zero grid size")
	}
}

func TestValidateRejectsNonPositiveSpawnCosts(t *testing.T) {
	cfg := Default()
	cfg.Gate.EnergyCost = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for zero energy cost")
	}
}

func TestValidateRejectsNonPositiveReplayCapacity(t *testing.T) {
	cfg := Default()
	cfg.Replay.Capacity = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for zero replay capacity")
	}
}

func TestLiveGateReloadRejectsInvalidConfig(t *testing.T) {
	lg := NewLiveGate(Default().Gate)
	original := lg.Get()

	bad := original
	bad.EnergyCost = -1
	if err := lg.Reload(bad); err == nil {
		t.Fatal("expected reload to reject a negative energy cost")
	}
	if lg.Get() != original {
		t.Error("LiveGate published an invalid config")
	}
}

func TestLiveGateReloadAcceptsValidConfig(t *testing.T) {
	lg := NewLiveGate(Default().Gate)

	good := lg.Get()
	good.EnergyCost = good.EnergyCost * 2
	if err := lg.Reload(good); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if lg.Get() != good {
		t.Error("LiveGate did not publish the valid reload")
	}
}
