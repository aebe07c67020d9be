package gatecost

import "github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"

// CapacityValid reports whether the queen has enough energy to spawn t.
// Capacity is checked before any other cost component is evaluated; a
// failing check short-circuits the gate to WAIT with reason
// "insufficient_energy" and never mutates queen energy (spec.md §3/§7).
func CapacityValid(queenEnergy float64, t observation.SpawnType, cfg Config) bool {
	return queenEnergy >= cfg.SpawnCost(t)
}
