package gatecost

import (
	"math"
	"testing"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

const axis = 16

func TestSurvivalEmptyProtectorsIsOne(t *testing.T) {
	cfg := DefaultConfig()
	if got := Survival(50, nil, axis, cfg); got != 1 {
		t.Errorf("Survival with no protectors = %v, want 1", got)
	}
}

func TestSurvivalProtectorAtSpawnIsZero(t *testing.T) {
	cfg := DefaultConfig()
	if got := Survival(50, []grid.ID{50}, axis, cfg); got != 0 {
		t.Errorf("Survival with protector at spawn = %v, want 0", got)
	}
}

func TestSurvivalFarProtectorNearlyOne(t *testing.T) {
	cfg := DefaultConfig()
	// Distance must be >= safeRange for threat to hit exactly zero.
	got := Survival(0, []grid.ID{255}, axis, cfg)
	if got < 1-1e-6 {
		t.Errorf("Survival with far protector = %v, want >= 1-eps", got)
	}
}

func TestSurvivalBoundedZeroOne(t *testing.T) {
	cfg := DefaultConfig()
	protectors := []grid.ID{10, 20, 30}
	for _, c := range grid.AllChunks(axis) {
		s := Survival(c, protectors, axis, cfg)
		if s < 0 || s > 1 {
			t.Fatalf("Survival(%d) = %v out of [0,1]", c, s)
		}
	}
}

func TestSurvivalBatchMatchesScalar(t *testing.T) {
	cfg := DefaultConfig()
	protectors := []grid.ID{5, 99}
	candidates := []grid.ID{0, 50, 255, 100}
	batch := SurvivalBatch(candidates, protectors, axis, cfg)
	for i, c := range candidates {
		want := Survival(c, protectors, axis, cfg)
		if math.Abs(batch[i]-want) > 1e-9 {
			t.Errorf("SurvivalBatch[%d] = %v, want %v", i, batch[i], want)
		}
	}
}

func TestDisruptionZeroWithoutSurvival(t *testing.T) {
	cfg := DefaultConfig()
	got := Disruption(50, []grid.ID{51}, axis, 0, cfg)
	if got != 0 {
		t.Errorf("Disruption with survival=0 = %v, want 0", got)
	}
}

func TestDisruptionPositiveNearWorker(t *testing.T) {
	cfg := DefaultConfig()
	got := Disruption(50, []grid.ID{51}, axis, 1.0, cfg)
	if got <= 0 {
		t.Errorf("Disruption near a worker = %v, want > 0", got)
	}
}

func TestCapacityValidBoundary(t *testing.T) {
	cfg := DefaultConfig()
	if !CapacityValid(cfg.EnergyCost, observation.SpawnTypeEnergy, cfg) {
		t.Error("energy exactly equal to cost should be valid")
	}
	if CapacityValid(cfg.EnergyCost-0.01, observation.SpawnTypeEnergy, cfg) {
		t.Error("energy just below cost should be invalid")
	}
}

func TestLocationNeverPositive(t *testing.T) {
	cfg := DefaultConfig()
	hive := grid.ID(0)
	for _, c := range []grid.ID{0, 50, 255} {
		if got := Location(c, hive, nil, axis, cfg); got > 0 {
			t.Errorf("Location(%d) idle mode = %v, want <= 0", c, got)
		}
		if got := Location(c, hive, []grid.ID{100}, axis, cfg); got > 0 {
			t.Errorf("Location(%d) active mode = %v, want <= 0", c, got)
		}
	}
}

func TestExplorationDecaysThenRecovers(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewExplorationTracker(cfg)
	chunk := grid.ID(10)

	if got := tr.Bonus(chunk, 0); got != cfg.ExplorationCeiling {
		t.Errorf("unspawned chunk bonus = %v, want ceiling %v", got, cfg.ExplorationCeiling)
	}

	tr.RecordSpawn(chunk, 100)
	if got := tr.Bonus(chunk, 100); got != 0 {
		t.Errorf("just-spawned chunk bonus = %v, want 0", got)
	}

	mid := tr.Bonus(chunk, 100+int64(cfg.ExplorationRecoveryTicks)/2)
	if mid <= 0 || mid >= cfg.ExplorationCeiling {
		t.Errorf("mid-recovery bonus = %v, want strictly between 0 and ceiling", mid)
	}

	full := tr.Bonus(chunk, 100+int64(cfg.ExplorationRecoveryTicks)*2)
	if full != cfg.ExplorationCeiling {
		t.Errorf("fully recovered bonus = %v, want ceiling %v", full, cfg.ExplorationCeiling)
	}
}
