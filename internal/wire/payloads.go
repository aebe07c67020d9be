package wire

import (
	"encoding/json"
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// WorkerPayload/ProtectorPayload/ParasitePayload mirror
// observation.Worker/Protector/Parasite with wire-friendly field names
// and a string state tag instead of a typed enum, matching the
// observation types' own String() vocabulary.
type WorkerPayload struct {
	Chunk int    `json:"chunk"`
	State string `json:"state,omitempty"`
}

type ProtectorPayload struct {
	Chunk int    `json:"chunk"`
	State string `json:"state,omitempty"`
}

type ParasitePayload struct {
	Chunk     int       `json:"chunk"`
	Type      string    `json:"type"`
	SpawnTime time.Time `json:"spawnTime"`
}

type RangePayload struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ObservationPayload is the inbound data of an observation_data
// message, per spec.md §3.
type ObservationPayload struct {
	Timestamp      time.Time          `json:"timestamp"`
	TerritoryID    string             `json:"territoryId"`
	MiningWorkers  []WorkerPayload    `json:"miningWorkers"`
	WorkersPresent []WorkerPayload    `json:"workersPresent"`
	Protectors     []ProtectorPayload `json:"protectors"`
	ParasitesStart []ParasitePayload  `json:"parasitesStart"`
	ParasitesEnd   []ParasitePayload  `json:"parasitesEnd"`
	QueenEnergy    struct {
		Current float64 `json:"current"`
	} `json:"queenEnergy"`
	PlayerEnergy   RangePayload `json:"playerEnergy"`
	PlayerMinerals RangePayload `json:"playerMinerals"`
	QueenChunk     int          `json:"queenChunk"`
}

// FromObservation builds the wire payload for obs, the inverse of
// ToObservation. Used by the in-process simulator to feed ticks into
// the handler the same way a real game client's observation_data
// message would.
func FromObservation(obs *observation.Observation) ObservationPayload {
	p := ObservationPayload{
		Timestamp:      obs.Timestamp,
		TerritoryID:    obs.Territory,
		PlayerEnergy:   RangePayload{Start: obs.PlayerEnergy.Start, End: obs.PlayerEnergy.End},
		PlayerMinerals: RangePayload{Start: obs.PlayerMinerals.Start, End: obs.PlayerMinerals.End},
		QueenChunk:     int(obs.QueenChunk),
	}
	p.QueenEnergy.Current = obs.QueenEnergy.Current

	for _, w := range obs.MiningWorkers {
		p.MiningWorkers = append(p.MiningWorkers, WorkerPayload{Chunk: int(w.Chunk), State: w.State.String()})
	}
	for _, w := range obs.WorkersPresent {
		p.WorkersPresent = append(p.WorkersPresent, WorkerPayload{Chunk: int(w.Chunk), State: w.State.String()})
	}
	for _, pr := range obs.Protectors {
		p.Protectors = append(p.Protectors, ProtectorPayload{Chunk: int(pr.Chunk), State: pr.State.String()})
	}
	for _, ps := range obs.ParasitesStart {
		p.ParasitesStart = append(p.ParasitesStart, ParasitePayload{Chunk: int(ps.Chunk), Type: ps.Type.String(), SpawnTime: ps.SpawnTime})
	}
	for _, ps := range obs.ParasitesEnd {
		p.ParasitesEnd = append(p.ParasitesEnd, ParasitePayload{Chunk: int(ps.Chunk), Type: ps.Type.String(), SpawnTime: ps.SpawnTime})
	}

	return p
}

func parseWorkerState(s string) observation.WorkerState {
	switch s {
	case "traveling_to_spot":
		return observation.WorkerTravelingToSpot
	case "mining":
		return observation.WorkerMining
	case "returning_to_base":
		return observation.WorkerReturningToBase
	case "fleeing":
		return observation.WorkerFleeing
	default:
		return observation.WorkerIdle
	}
}

func parseProtectorState(s string) observation.ProtectorState {
	switch s {
	case "chasing":
		return observation.ProtectorChasing
	case "returning":
		return observation.ProtectorReturning
	default:
		return observation.ProtectorPatrolling
	}
}

func parseSpawnType(s string) observation.SpawnType {
	switch s {
	case "combat":
		return observation.SpawnTypeCombat
	case "energy":
		return observation.SpawnTypeEnergy
	default:
		return observation.SpawnTypeNone
	}
}

// ToObservation converts the wire payload into the domain type the
// feature extractor and gate operate on.
func (p ObservationPayload) ToObservation() *observation.Observation {
	obs := &observation.Observation{
		Timestamp:      p.Timestamp,
		Territory:      p.TerritoryID,
		PlayerEnergy:   observation.Range{Start: p.PlayerEnergy.Start, End: p.PlayerEnergy.End},
		PlayerMinerals: observation.Range{Start: p.PlayerMinerals.Start, End: p.PlayerMinerals.End},
		QueenChunk:     grid.ID(p.QueenChunk),
	}
	obs.QueenEnergy.Current = p.QueenEnergy.Current

	for _, w := range p.MiningWorkers {
		obs.MiningWorkers = append(obs.MiningWorkers, observation.Worker{Chunk: grid.ID(w.Chunk), State: parseWorkerState(w.State)})
	}
	for _, w := range p.WorkersPresent {
		obs.WorkersPresent = append(obs.WorkersPresent, observation.Worker{Chunk: grid.ID(w.Chunk), State: parseWorkerState(w.State)})
	}
	for _, pr := range p.Protectors {
		obs.Protectors = append(obs.Protectors, observation.Protector{Chunk: grid.ID(pr.Chunk), State: parseProtectorState(pr.State)})
	}
	for _, ps := range p.ParasitesStart {
		obs.ParasitesStart = append(obs.ParasitesStart, observation.Parasite{Chunk: grid.ID(ps.Chunk), Type: parseSpawnType(ps.Type), SpawnTime: ps.SpawnTime})
	}
	for _, ps := range p.ParasitesEnd {
		obs.ParasitesEnd = append(obs.ParasitesEnd, observation.Parasite{Chunk: grid.ID(ps.Chunk), Type: parseSpawnType(ps.Type), SpawnTime: ps.SpawnTime})
	}

	return obs
}

// ObservationResponsePayload is the outbound data of an
// observation_response message, per spec.md §6.
type ObservationResponsePayload struct {
	SpawnChunk     int     `json:"spawnChunk"`
	SpawnType      *string `json:"spawnType"`
	Confidence     float64 `json:"confidence"`
	NNDecision     string  `json:"nnDecision"`
	GateDecision   string  `json:"gateDecision"`
	ExpectedReward float64 `json:"expectedReward"`
}

// SpawnResultPayload reports whether a previously-sent spawn decision
// was actually executed by the client, per spec.md §6's spawn_result row.
type SpawnResultPayload struct {
	TerritoryID string `json:"territoryId"`
	Success     bool   `json:"success"`
	Chunk       int    `json:"chunk"`
}

// ForwardedPayload is the shared shape of queen_death/queen_success/
// game_outcome messages: spec.md §6 marks these "forwarded to
// higher-level subsystems (out of core scope)", so the handler only
// needs enough structure to route them to an injected callback, not to
// interpret their contents.
type ForwardedPayload struct {
	TerritoryID string          `json:"territoryId"`
	Detail      json.RawMessage `json:"detail,omitempty"`
}

// ErrorPayload is the typed VALIDATION_ERROR response spec.md §7
// requires for any message that fails schema or business-rule checks.
type ErrorPayload struct {
	Code      string `json:"code"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// PongPayload answers a ping with a round-trip timestamp.
type PongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponsePayload reports process status, including the
// dashboard aggregator's degraded flag per spec.md §7's
// ModelNotInitialized policy.
type HealthResponsePayload struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded"`
}

// ResetNNPayload must carry an explicit confirmation per spec.md §6.
type ResetNNPayload struct {
	Confirm bool `json:"confirm"`
}

// ResetNNResponsePayload reports whether the reset happened.
type ResetNNResponsePayload struct {
	Success bool `json:"success"`
}

// GateStatsResponsePayload is read-only gate telemetry.
type GateStatsResponsePayload struct {
	Decisions map[string]float64 `json:"decisions"`
}

// TrainingStatusResponsePayload is read-only trainer telemetry.
type TrainingStatusResponsePayload struct {
	ModelVersion int64   `json:"modelVersion"`
	TrainingLoss float64 `json:"trainingLoss"`
}

// BackgroundTrainingStatsResponsePayload is read-only trainer
// throughput/buffer telemetry.
type BackgroundTrainingStatsResponsePayload struct {
	StepsPerSecond  float64 `json:"stepsPerSecond"`
	BufferFillRatio float64 `json:"bufferFillRatio"`
}
