package gatecost

import "github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"

// Location computes the location penalty (<= 0, never a bonus) for a
// candidate spawn chunk. In "idle mode" (no workers present) the
// penalty grows with distance from the hive; in "active mode" it grows
// with distance to the nearest worker, per spec.md §4.3 item 4.
func Location(spawn, hive grid.ID, workers []grid.ID, axis int, cfg Config) float64 {
	if spawn < 0 {
		return 0
	}
	if len(workers) == 0 {
		d := grid.Normalize(grid.Distance(spawn, hive, axis), axis)
		return -cfg.LocationIdlePenaltyScale * d
	}
	nearest := grid.MaxDistance(axis)
	for _, w := range workers {
		if d := grid.Distance(spawn, w, axis); d < nearest {
			nearest = d
		}
	}
	return -cfg.LocationActivePenaltyScale * grid.Normalize(nearest, axis)
}

// LocationBatch computes Location for every candidate chunk.
func LocationBatch(candidates []grid.ID, hive grid.ID, workers []grid.ID, axis int, cfg Config) []float64 {
	out := make([]float64, len(candidates))

	if len(workers) == 0 {
		hiveDist := grid.DistanceMatrix(candidates, []grid.ID{hive}, axis)
		for i, row := range hiveDist {
			if candidates[i] < 0 {
				continue
			}
			out[i] = -cfg.LocationIdlePenaltyScale * grid.Normalize(row[0], axis)
		}
		return out
	}

	dist := grid.DistanceMatrix(candidates, workers, axis)
	for i, row := range dist {
		if candidates[i] < 0 {
			continue
		}
		nearest := row[0]
		for _, d := range row[1:] {
			if d < nearest {
				nearest = d
			}
		}
		out[i] = -cfg.LocationActivePenaltyScale * grid.Normalize(nearest, axis)
	}
	return out
}
