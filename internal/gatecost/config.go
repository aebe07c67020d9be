// Package gatecost implements the decision gate's cost-function
// components: capacity validation, survival probability, worker
// disruption, location penalty and the exploration bonus, all operating
// on dense per-chunk float arrays so the gate's SHOULD_SPAWN search
// stays O(axis^2) per call (SPEC_FULL.md §4.3).
//
// Survival's three-zone threat model and the batched distance-matrix
// approach are grounded on original_source's
// ai_engine/decision_gate/components/survival.py and utils.py. Disruption,
// location and exploration did not survive original_source's filtering
// and are this repository's own implementation of spec.md §4.3 items
// 3-5, built in the same batched style.
package gatecost

import "github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"

// Config holds the gate's tunable cost-function parameters. Bound from
// YAML via internal/config and hot-reloadable at runtime (SPEC_FULL.md
// §6).
type Config struct {
	KillRange   float64 `mapstructure:"killRange"`
	SafeRange   float64 `mapstructure:"safeRange"`
	ThreatDecay float64 `mapstructure:"threatDecay"`

	// EnergyCost and CombatCost are the queen-energy cost of each spawn type.
	EnergyCost float64 `mapstructure:"energyCost"`
	CombatCost float64 `mapstructure:"combatCost"`

	// Weights for the aggregate score: survival, disruption, location, exploration.
	WeightSurvival    float64 `mapstructure:"weightSurvival"`
	WeightDisruption  float64 `mapstructure:"weightDisruption"`
	WeightLocation    float64 `mapstructure:"weightLocation"`
	WeightExploration float64 `mapstructure:"weightExploration"`

	SendThreshold        float64 `mapstructure:"sendThreshold"`
	ShouldSpawnThreshold  float64 `mapstructure:"shouldSpawnThreshold"`
	ConfidenceOverride    float64 `mapstructure:"confidenceOverride"`

	// LocationIdlePenaltyScale/LocationActivePenaltyScale scale the
	// distance-based location penalty in idle/active mode respectively.
	LocationIdlePenaltyScale   float64 `mapstructure:"locationIdlePenaltyScale"`
	LocationActivePenaltyScale float64 `mapstructure:"locationActivePenaltyScale"`

	// ExplorationCeiling is the bonus's max; ExplorationRecoveryTicks is
	// how many ticks the bonus takes to recover linearly, and fully, to
	// that ceiling after a spawn at a chunk.
	ExplorationCeiling      float64 `mapstructure:"explorationCeiling"`
	ExplorationRecoveryTicks float64 `mapstructure:"explorationRecoveryTicks"`
}

// DefaultConfig returns the literal defaults spec.md §8 exercises in its
// end-to-end scenarios.
func DefaultConfig() Config {
	return Config{
		KillRange:   2.0,
		SafeRange:   8.0,
		ThreatDecay: 0.5,

		EnergyCost: 15,
		CombatCost: 25,

		WeightSurvival:    0.4,
		WeightDisruption:  0.5,
		WeightLocation:    0.1,
		WeightExploration: 0.0,

		SendThreshold:        0.0,
		ShouldSpawnThreshold: 0.3,
		ConfidenceOverride:   0.9,

		LocationIdlePenaltyScale:   0.05,
		LocationActivePenaltyScale: 0.05,

		ExplorationCeiling:      0.05,
		ExplorationRecoveryTicks: 50,
	}
}

// SpawnCost returns the queen-energy cost of a spawn type.
func (c Config) SpawnCost(t observation.SpawnType) float64 {
	if t == observation.SpawnTypeCombat {
		return c.CombatCost
	}
	return c.EnergyCost
}
