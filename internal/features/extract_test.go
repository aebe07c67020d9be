package features

import (
	"testing"
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

const axis = 16

func sampleObs() *observation.Observation {
	o := &observation.Observation{
		Timestamp:      time.Date(2026, 1, 1, 0, 0, 42, 500000000, time.UTC),
		Territory:      "t1",
		WorkersPresent: []observation.Worker{{Chunk: 50}, {Chunk: 51}},
		MiningWorkers:  []observation.Worker{{Chunk: 52}},
		Protectors:     []observation.Protector{{Chunk: 10}},
		ParasitesStart: []observation.Parasite{{Chunk: 20, Type: observation.SpawnTypeEnergy}},
		ParasitesEnd: []observation.Parasite{
			{Chunk: 20, Type: observation.SpawnTypeEnergy},
			{Chunk: 21, Type: observation.SpawnTypeCombat},
		},
		PlayerEnergy:   observation.Range{Start: 100, End: 120},
		PlayerMinerals: observation.Range{Start: 200, End: 190},
	}
	o.QueenEnergy.Current = 75
	o.QueenChunk = 0
	return o
}

func TestExtractIsDeterministic(t *testing.T) {
	obs := sampleObs()
	a, err := Extract(obs, axis)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	b, err := Extract(obs, axis)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if a != b {
		t.Fatalf("Extract() not deterministic:\n%v\n%v", a, b)
	}
}

func TestExtractSizeAndBounds(t *testing.T) {
	obs := sampleObs()
	v, err := Extract(obs, axis)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(v) != Size {
		t.Fatalf("len(v) = %d, want %d", len(v), Size)
	}
	for i, f := range v {
		if f < -1.0001 || f > 1.0001 {
			t.Errorf("feature[%d] = %v, out of expected bounded range", i, f)
		}
	}
}

func TestExtractRejectsNilObservation(t *testing.T) {
	if _, err := Extract(nil, axis); err != ErrInvalidObservation {
		t.Fatalf("Extract(nil) error = %v, want ErrInvalidObservation", err)
	}
}

func TestExtractRejectsMissingTerritory(t *testing.T) {
	obs := sampleObs()
	obs.Territory = ""
	if _, err := Extract(obs, axis); err != ErrInvalidObservation {
		t.Fatalf("Extract() error = %v, want ErrInvalidObservation", err)
	}
}

func TestExtractEmptyObservationIsZeroedButValid(t *testing.T) {
	obs := &observation.Observation{Territory: "empty"}
	v, err := Extract(obs, axis)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	// Entity counts and mean positions should all be zero with nothing present.
	for i := 0; i < 10; i++ {
		if v[i] != 0 {
			t.Errorf("feature[%d] = %v, want 0 for empty observation", i, v[i])
		}
	}
}
