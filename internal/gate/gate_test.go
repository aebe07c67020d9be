package gate

import (
	"math"
	"testing"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/gatecost"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

func newObs(territory string) *observation.Observation {
	o := &observation.Observation{Territory: territory}
	o.QueenEnergy.Current = 50
	return o
}

// Scenario 1: empty world, no-spawn honored.
func TestScenarioEmptyWorldNoSpawn(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t1")

	skip, _ := Preprocess(obs)
	if !skip {
		t.Fatal("expected preprocess gate to skip an empty observation")
	}

	d := g.Evaluate(obs, Candidate{Chunk: -1}, 0)
	if d.Decision != CorrectWait {
		t.Fatalf("decision = %v, want CORRECT_WAIT", d.Decision)
	}
	if d.ExpectedReward <= 0 {
		t.Fatalf("expected reward = %v, want > 0", d.ExpectedReward)
	}
	if d.Chunk != -1 {
		t.Fatalf("chunk = %v, want -1", d.Chunk)
	}
}

// Scenario 2: obvious good spawn.
func TestScenarioGoodSpawnSends(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t2")
	obs.WorkersPresent = []observation.Worker{{Chunk: 50}}

	d := g.Evaluate(obs, Candidate{Chunk: 51, Type: observation.SpawnTypeEnergy, Confidence: 0.6}, 0)
	if d.Components.Survival < 0.999 {
		t.Errorf("survival = %v, want ~1", d.Components.Survival)
	}
	if d.Components.Disruption <= 0.5 {
		t.Errorf("disruption = %v, want > 0.5", d.Components.Disruption)
	}
	if d.ExpectedReward <= 0 {
		t.Errorf("expected reward = %v, want > 0", d.ExpectedReward)
	}
	if d.Decision != Send {
		t.Errorf("decision = %v, want SEND", d.Decision)
	}
}

// Scenario 3: dangerous spawn vetoed.
func TestScenarioDangerousSpawnWaits(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t3")
	obs.WorkersPresent = []observation.Worker{{Chunk: 50}}
	obs.Protectors = []observation.Protector{{Chunk: 50}}

	d := g.Evaluate(obs, Candidate{Chunk: 50, Type: observation.SpawnTypeEnergy, Confidence: 0.3}, 0)
	if d.Components.Survival != 0 {
		t.Errorf("survival = %v, want 0", d.Components.Survival)
	}
	if d.Decision != Wait {
		t.Errorf("decision = %v, want WAIT", d.Decision)
	}
	if d.Reason != "dangerous" {
		t.Errorf("reason = %q, want dangerous", d.Reason)
	}
}

// Scenario 4: confidence override forces SEND regardless of computed reward.
func TestScenarioConfidenceOverride(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t4")
	obs.WorkersPresent = []observation.Worker{{Chunk: 50}}
	obs.Protectors = []observation.Protector{{Chunk: 50}}

	d := g.Evaluate(obs, Candidate{Chunk: 50, Type: observation.SpawnTypeEnergy, Confidence: 0.97}, 0)
	if d.Decision != Send {
		t.Errorf("decision = %v, want SEND", d.Decision)
	}
	if d.Reason != "confidence_override" {
		t.Errorf("reason = %q, want confidence_override", d.Reason)
	}
}

// Scenario 5: should-spawn correction when NN proposes no-spawn but a
// viable alternative exists.
func TestScenarioShouldSpawnCorrection(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t5")
	obs.WorkersPresent = []observation.Worker{{Chunk: 100}, {Chunk: 101}}

	d := g.Evaluate(obs, Candidate{Chunk: -1}, 0)
	if d.Decision != ShouldSpawn {
		t.Fatalf("decision = %v, want SHOULD_SPAWN", d.Decision)
	}
	if d.ExpectedReward >= 0 {
		t.Errorf("expected reward = %v, want < 0", d.ExpectedReward)
	}
}

func TestCapacityFailureYieldsWaitWithNegativeInfinity(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t6")
	obs.WorkersPresent = []observation.Worker{{Chunk: 50}}
	obs.QueenEnergy.Current = 10 // below both energy(15) and combat(25) cost

	d := g.Evaluate(obs, Candidate{Chunk: 51, Type: observation.SpawnTypeEnergy, Confidence: 0.9}, 0)
	if d.Decision != Wait || d.Reason != "insufficient_energy" {
		t.Fatalf("decision = %v/%s, want WAIT/insufficient_energy", d.Decision, d.Reason)
	}
	if !math.IsInf(d.ExpectedReward, -1) {
		t.Errorf("expected reward = %v, want -Inf", d.ExpectedReward)
	}
}

func TestNoSpawnSentinelIsTreatedAsNoSpawn(t *testing.T) {
	g := New(16, gatecost.DefaultConfig())
	obs := newObs("t7")
	obs.Protectors = []observation.Protector{{Chunk: 10}}

	d := g.Evaluate(obs, Candidate{Chunk: grid.NoSpawn(16)}, 0)
	if d.Decision != CorrectWait && d.Decision != ShouldSpawn {
		t.Fatalf("unexpected decision for NO_SPAWN sentinel candidate: %v", d.Decision)
	}
}
