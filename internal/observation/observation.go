// Package observation defines the per-tick snapshot of the play area
// that drives the rest of the pipeline, per SPEC_FULL.md §3.
package observation

import (
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
)

// WorkerState is a worker's state-machine tag.
type WorkerState int

const (
	WorkerIdle WorkerState = iota
	WorkerTravelingToSpot
	WorkerMining
	WorkerReturningToBase
	WorkerFleeing
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerTravelingToSpot:
		return "traveling_to_spot"
	case WorkerMining:
		return "mining"
	case WorkerReturningToBase:
		return "returning_to_base"
	case WorkerFleeing:
		return "fleeing"
	default:
		return "unknown"
	}
}

// ProtectorState is a protector's state-machine tag.
type ProtectorState int

const (
	ProtectorPatrolling ProtectorState = iota
	ProtectorChasing
	ProtectorReturning
)

func (s ProtectorState) String() string {
	switch s {
	case ProtectorPatrolling:
		return "patrolling"
	case ProtectorChasing:
		return "chasing"
	case ProtectorReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// SpawnType is the parasite/spawn-decision type.
type SpawnType int

const (
	// SpawnTypeNone marks a policy/gate decision of "no spawn". Not a
	// wire value; zero value of SpawnType used only internally where a
	// "no type" placeholder is convenient; replay.Experience stores it for
	// no-spawn rows. policy.Decision instead uses a *SpawnType and the
	// wire layer a *string (nil = no spawn).
	SpawnTypeNone SpawnType = iota
	SpawnTypeEnergy
	SpawnTypeCombat
)

func (t SpawnType) String() string {
	switch t {
	case SpawnTypeEnergy:
		return "energy"
	case SpawnTypeCombat:
		return "combat"
	default:
		return "none"
	}
}

// Worker is a visible opposing unit that may be mining or fleeing.
type Worker struct {
	Chunk grid.ID
	State WorkerState
}

// Protector is an opposing unit that patrols and destroys parasites.
type Protector struct {
	Chunk grid.ID
	State ProtectorState
}

// Parasite is an entity spawned by the Queen.
type Parasite struct {
	Chunk     grid.ID
	Type      SpawnType
	SpawnTime time.Time
}

// Range is a start/end pair of a resource quantity over the tick window.
type Range struct {
	Start, End float64
}

// Observation is the per-tick, per-territory snapshot described in
// SPEC_FULL.md §3.
type Observation struct {
	Timestamp time.Time
	Territory string

	MiningWorkers  []Worker
	WorkersPresent []Worker
	Protectors     []Protector
	ParasitesStart []Parasite
	ParasitesEnd   []Parasite

	QueenEnergy struct {
		Current float64
	}
	PlayerEnergy   Range
	PlayerMinerals Range

	QueenChunk grid.ID
}

// TotalWorkers returns the count of mining + present workers, the
// activity signal the preprocess gate checks.
func (o *Observation) TotalWorkers() int {
	return len(o.MiningWorkers) + len(o.WorkersPresent)
}
