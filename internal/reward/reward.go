// Package reward computes the ground-truth reward signal from
// successive observations of the same territory, per SPEC_FULL.md
// §4.4. No reward_calculator.py survived original_source's filtering,
// so this is built directly from spec.md §4.4's contract.
package reward

import (
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// Config tunes the reward calculator's scaling constants.
type Config struct {
	MineralsScale    float64 `mapstructure:"mineralsScale"`
	EnergyScale      float64 `mapstructure:"energyScale"`
	DisruptionBonus  float64 `mapstructure:"disruptionBonus"`
	DestroyedPenalty float64 `mapstructure:"destroyedPenalty"`
	ProtectorApproachRadius float64 `mapstructure:"protectorApproachRadius"`
}

// DefaultConfig returns reasonable scaling defaults.
func DefaultConfig() Config {
	return Config{
		MineralsScale:           500.0,
		EnergyScale:             200.0,
		DisruptionBonus:         0.2,
		DestroyedPenalty:        0.3,
		ProtectorApproachRadius: 6.0,
	}
}

// Outcome is the calculator's result: a bounded reward plus the
// breakdown that produced it, useful for logging and tests.
type Outcome struct {
	Reward            float64
	DeltaMinerals     float64
	DeltaEnergy       float64
	DisruptionBonus   float64
	DestroyedPenalty  float64
}

// Calculate computes the ground-truth reward for the transition from
// prev to curr, for a spawn decision at spawnChunk (grid.NoSpawn(axis)
// for a no-spawn decision, in which case expectedReward — the gate's
// own estimate — is returned directly per spec.md §4.4's no-spawn
// clause). The calculator is pure: it reads only its arguments.
func Calculate(prev, curr *observation.Observation, spawnChunk grid.ID, axis int, expectedReward float64, cfg Config) Outcome {
	if spawnChunk == grid.NoSpawn(axis) {
		return Outcome{Reward: expectedReward}
	}

	deltaMinerals := curr.PlayerMinerals.End - prev.PlayerMinerals.End
	deltaEnergy := curr.PlayerEnergy.End - prev.PlayerEnergy.End

	base := -(deltaMinerals/cfg.MineralsScale + deltaEnergy/cfg.EnergyScale) / 2
	base = clamp(base, -1, 1)

	disruption := 0.0
	if protectorsApproached(prev, curr, spawnChunk, axis, cfg.ProtectorApproachRadius) {
		disruption = cfg.DisruptionBonus
	}

	destroyed := 0.0
	if parasiteDestroyed(prev, curr, spawnChunk) {
		destroyed = cfg.DestroyedPenalty
	}

	total := clamp(base+disruption-destroyed, -1, 1)

	return Outcome{
		Reward:           total,
		DeltaMinerals:    deltaMinerals,
		DeltaEnergy:      deltaEnergy,
		DisruptionBonus:  disruption,
		DestroyedPenalty: destroyed,
	}
}

// protectorsApproached reports whether the nearest protector's distance
// to spawnChunk shrank from prev to curr and ends within radius, evidence
// the spawn is drawing
// attention away from the economy.
func protectorsApproached(prev, curr *observation.Observation, spawnChunk grid.ID, axis int, radius float64) bool {
	prevNearest := nearestProtectorDistance(prev, spawnChunk, axis)
	currNearest := nearestProtectorDistance(curr, spawnChunk, axis)
	return currNearest < prevNearest && currNearest <= radius
}

func nearestProtectorDistance(obs *observation.Observation, chunk grid.ID, axis int) float64 {
	nearest := grid.MaxDistance(axis)
	for _, p := range obs.Protectors {
		if d := grid.Distance(chunk, p.Chunk, axis); d < nearest {
			nearest = d
		}
	}
	return nearest
}

// parasiteDestroyed reports whether a parasite present at spawnChunk in
// prev.ParasitesEnd is absent from curr's parasite lists entirely.
func parasiteDestroyed(prev, curr *observation.Observation, spawnChunk grid.ID) bool {
	wasPresent := false
	for _, p := range prev.ParasitesEnd {
		if p.Chunk == spawnChunk {
			wasPresent = true
			break
		}
	}
	if !wasPresent {
		return false
	}
	for _, p := range curr.ParasitesStart {
		if p.Chunk == spawnChunk {
			return false
		}
	}
	for _, p := range curr.ParasitesEnd {
		if p.Chunk == spawnChunk {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
