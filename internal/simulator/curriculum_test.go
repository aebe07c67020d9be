package simulator

import "testing"

func TestCurriculumTransitionsAfterDuration(t *testing.T) {
	phases := []Phase{
		{Name: "warmup", DurationTicks: 3, NumWorkers: 1, NumProtectors: 0},
		{Name: "full", DurationTicks: -1, NumWorkers: 4, NumProtectors: 2},
	}
	c := NewCurriculum(phases)
	cfg := DefaultConfig(8)
	cfg.NumWorkers = 1
	cfg.NumProtectors = 0
	sim := New("t1", cfg, 1)

	for i := 0; i < 2; i++ {
		if c.Advance(sim) {
			t.Fatalf("tick %d: transitioned too early", i)
		}
	}
	if !c.Advance(sim) {
		t.Fatal("expected transition on the 3rd tick")
	}
	if c.Current().Name != "full" {
		t.Errorf("current phase = %q, want full", c.Current().Name)
	}
	if len(sim.workers) != 4 || len(sim.protectors) != 2 {
		t.Errorf("population after transition = (%d,%d), want (4,2)", len(sim.workers), len(sim.protectors))
	}
}

func TestCurriculumTerminalPhaseNeverTransitions(t *testing.T) {
	phases := []Phase{{Name: "only", DurationTicks: -1, NumWorkers: 2, NumProtectors: 1}}
	c := NewCurriculum(phases)
	cfg := DefaultConfig(8)
	sim := New("t1", cfg, 1)

	for i := 0; i < 10; i++ {
		if c.Advance(sim) {
			t.Fatalf("terminal phase transitioned at tick %d", i)
		}
	}
	if !c.Done() {
		t.Error("Done() should report true for a terminal-only curriculum")
	}
}
