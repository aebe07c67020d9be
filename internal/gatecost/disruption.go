package gatecost

import "github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"

// workerDisruption is the bounded, decreasing-with-distance contribution
// of a single worker at distance d, zero at or past SafeRange. Linear
// falloff mirrors the shape of ThreatFactor's safe-zone cutoff without
// reusing its exponential kill/threat-zone math, since a worker (unlike
// a protector) poses no binary kill-zone threshold to the parasite.
func workerDisruption(distance float64, cfg Config) float64 {
	if distance >= cfg.SafeRange {
		return 0
	}
	if distance <= 0 {
		return 1
	}
	return 1 - distance/cfg.SafeRange
}

// Disruption computes the worker-disruption component for a single
// spawn chunk: per-worker contributions summed and clamped to [0,1],
// then scaled by survival — a dead parasite disrupts nothing.
func Disruption(spawn grid.ID, workers []grid.ID, axis int, survival float64, cfg Config) float64 {
	if spawn < 0 || len(workers) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range workers {
		total += workerDisruption(grid.Distance(spawn, w, axis), cfg)
	}
	if total > 1 {
		total = 1
	}
	return total * survival
}

// DisruptionBatch computes Disruption for every candidate chunk against
// a shared worker set and a parallel survival array (one value per
// candidate, as produced by SurvivalBatch).
func DisruptionBatch(candidates, workers []grid.ID, axis int, survival []float64, cfg Config) []float64 {
	out := make([]float64, len(candidates))
	if len(workers) == 0 {
		return out
	}
	dist := grid.DistanceMatrix(candidates, workers, axis)
	for i, row := range dist {
		if candidates[i] < 0 {
			continue
		}
		total := 0.0
		for _, d := range row {
			total += workerDisruption(d, cfg)
		}
		if total > 1 {
			total = 1
		}
		out[i] = total * survival[i]
	}
	return out
}
