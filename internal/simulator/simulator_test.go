package simulator

import (
	"testing"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

func TestNewPopulatesConfiguredCounts(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 3
	cfg.NumProtectors = 2
	sim := New("t1", cfg, 1)

	if len(sim.workers) != 3 {
		t.Errorf("workers = %d, want 3", len(sim.workers))
	}
	if len(sim.protectors) != 2 {
		t.Errorf("protectors = %d, want 2", len(sim.protectors))
	}
}

func TestTickProducesObservationMatchingPopulation(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 2
	cfg.NumProtectors = 1
	sim := New("t1", cfg, 1)

	obs := sim.Tick()

	if obs.Territory != "t1" {
		t.Errorf("territory = %q, want t1", obs.Territory)
	}
	if len(obs.WorkersPresent) != 2 {
		t.Errorf("WorkersPresent = %d, want 2", len(obs.WorkersPresent))
	}
	if len(obs.Protectors) != 1 {
		t.Errorf("Protectors = %d, want 1", len(obs.Protectors))
	}
}

func TestQueenEnergyRegeneratesUpToCap(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.QueenStartEnergy = cfg.QueenMaxEnergy - 1
	cfg.QueenEnergyRegen = 5
	sim := New("t1", cfg, 1)

	sim.Tick()

	if got := sim.QueenEnergy(); got != cfg.QueenMaxEnergy {
		t.Errorf("QueenEnergy() = %v, want capped at %v", got, cfg.QueenMaxEnergy)
	}
}

func TestSpawnParasiteDeductsEnergyAndFailsBelowCost(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.QueenStartEnergy = 10
	cfg.EnergyCost = 15
	sim := New("t1", cfg, 1)

	if sim.SpawnParasite(grid.ID(5), observation.SpawnTypeEnergy) {
		t.Fatal("spawn should have failed: insufficient energy")
	}
	if sim.QueenEnergy() != 10 {
		t.Errorf("energy changed on failed spawn: %v", sim.QueenEnergy())
	}

	sim.queenEnergy = 20
	if !sim.SpawnParasite(grid.ID(5), observation.SpawnTypeEnergy) {
		t.Fatal("spawn should have succeeded")
	}
	if sim.QueenEnergy() != 5 {
		t.Errorf("energy after spawn = %v, want 5", sim.QueenEnergy())
	}
	if len(sim.parasites) != 1 {
		t.Fatalf("parasites = %d, want 1", len(sim.parasites))
	}
}

func TestProtectorSharingChunkDestroysParasite(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 0
	cfg.NumProtectors = 1
	sim := New("t1", cfg, 1)

	sim.protectors[0].Chunk = grid.ID(5)
	sim.protectors[0].State = observation.ProtectorPatrolling
	sim.parasites = append(sim.parasites, &parasiteEntity{ID: 1, Chunk: grid.ID(5), Type: observation.SpawnTypeEnergy})

	sim.resolveInteractions()

	if len(sim.parasites) != 0 {
		t.Fatalf("parasite survived colocation with protector")
	}
	if sim.protectors[0].State != observation.ProtectorReturning {
		t.Errorf("protector state = %v, want Returning after kill", sim.protectors[0].State)
	}
}

func TestWorkerFleesParasiteWithinRadiusAndRecovers(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 1
	cfg.NumProtectors = 0
	cfg.FleeRadius = 10 // guarantee trigger regardless of starting chunk
	cfg.FleeDuration = 2
	sim := New("t1", cfg, 1)

	sim.workers[0].State = observation.WorkerMining
	sim.parasites = append(sim.parasites, &parasiteEntity{ID: 1, Chunk: sim.workers[0].Chunk, Type: observation.SpawnTypeCombat})

	sim.resolveInteractions()
	if sim.workers[0].State != observation.WorkerFleeing {
		t.Fatalf("worker state = %v, want Fleeing", sim.workers[0].State)
	}
	if sim.workers[0].PrevState != observation.WorkerMining {
		t.Fatalf("PrevState = %v, want Mining", sim.workers[0].PrevState)
	}

	sim.tickWorker(sim.workers[0])
	sim.tickWorker(sim.workers[0])
	if sim.workers[0].State != observation.WorkerMining {
		t.Fatalf("worker state after flee timer expired = %v, want Mining restored", sim.workers[0].State)
	}
}

func TestReshapeGrowsAndShrinksPopulation(t *testing.T) {
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 2
	cfg.NumProtectors = 2
	sim := New("t1", cfg, 1)

	sim.Reshape(5, 1)
	if len(sim.workers) != 5 {
		t.Errorf("workers after grow = %d, want 5", len(sim.workers))
	}
	if len(sim.protectors) != 1 {
		t.Errorf("protectors after shrink = %d, want 1", len(sim.protectors))
	}
}

func TestTickIsDeterministicForFixedSeed(t *testing.T) {
	cfg := DefaultConfig(8)
	a := New("t1", cfg, 42)
	b := New("t1", cfg, 42)

	for i := 0; i < 20; i++ {
		oa := a.Tick()
		ob := b.Tick()
		if oa.QueenEnergy.Current != ob.QueenEnergy.Current {
			t.Fatalf("tick %d: queen energy diverged: %v vs %v", i, oa.QueenEnergy.Current, ob.QueenEnergy.Current)
		}
		if len(oa.WorkersPresent) != len(ob.WorkersPresent) {
			t.Fatalf("tick %d: worker count diverged", i)
		}
		for j := range oa.WorkersPresent {
			if oa.WorkersPresent[j].Chunk != ob.WorkersPresent[j].Chunk {
				t.Fatalf("tick %d worker %d: chunk diverged: %v vs %v", i, j, oa.WorkersPresent[j].Chunk, ob.WorkersPresent[j].Chunk)
			}
		}
	}
}
