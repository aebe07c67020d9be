package gatecost

import (
	"math"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
)

// ThreatFactor returns the single-protector threat contribution at
// distance d, per the three-zone model in survival.py:
//   - d < KillRange: certain death, threat = 1
//   - KillRange <= d < SafeRange: exponential decay
//   - d >= SafeRange: no threat
func ThreatFactor(distance float64, cfg Config) float64 {
	switch {
	case distance < cfg.KillRange:
		return 1.0
	case distance < cfg.SafeRange:
		return math.Exp(-cfg.ThreatDecay * (distance - cfg.KillRange))
	default:
		return 0.0
	}
}

// Survival computes survival = prod(1 - threat_i) for a single spawn
// chunk against a set of protector chunks. Survival for an empty
// protector set is 1. A negative spawn chunk (invalid) always survives
// at 0, matching survival.py's invalid_spawn handling.
func Survival(spawn grid.ID, protectors []grid.ID, axis int, cfg Config) float64 {
	if spawn < 0 {
		return 0
	}
	if len(protectors) == 0 {
		return 1
	}
	survival := 1.0
	for _, p := range protectors {
		d := grid.Distance(spawn, p, axis)
		survival *= 1 - ThreatFactor(d, cfg)
	}
	return survival
}

// SurvivalBatch computes Survival for every candidate chunk against a
// shared set of protector chunks, reusing one distance matrix rather
// than calling Survival per-candidate. This is what keeps the gate's
// SHOULD_SPAWN search at O(axis^2) total instead of O(axis^2) scalar
// Survival calls.
func SurvivalBatch(candidates, protectors []grid.ID, axis int, cfg Config) []float64 {
	out := make([]float64, len(candidates))
	for i := range out {
		out[i] = 1
	}
	if len(protectors) == 0 {
		for i, c := range candidates {
			if c < 0 {
				out[i] = 0
			}
		}
		return out
	}

	dist := grid.DistanceMatrix(candidates, protectors, axis)
	for i, row := range dist {
		if candidates[i] < 0 {
			out[i] = 0
			continue
		}
		s := 1.0
		for _, d := range row {
			s *= 1 - ThreatFactor(d, cfg)
		}
		out[i] = s
	}
	return out
}
