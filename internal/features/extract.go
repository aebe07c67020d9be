// Package features converts an observation into the fixed-width,
// normalized float vector the policy network consumes, per
// SPEC_FULL.md §4.1.
//
// original_source's filtered set kept no feature_extractor.py, so this
// 28-feature layout is this repository's own deterministic design
// satisfying spec.md's contract (see SPEC_FULL.md §4 for the
// field-by-field rationale): entity counts, aggregate positions,
// queen-energy/player-resource rates, spatial spread, parasite
// composition and tick-phase, all scaled into [0,1] or a small bounded
// range around 0.
package features

import (
	"errors"
	"math"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// Size is the fixed feature-vector width, F in spec.md.
const Size = 28

// scale constants used to clip-then-divide raw counts into [0,1].
const (
	maxWorkerCount    = 20.0
	maxProtectorCount = 10.0
	maxParasiteCount  = 10.0
)

// ErrInvalidObservation is returned only when required top-level fields
// are absent (spec.md §4.1's contract: total otherwise, never fails on
// a well-formed observation).
var ErrInvalidObservation = errors.New("invalid observation: missing required field")

// Extract is a pure function: observation -> [Size]float64. It is
// deterministic and total over well-formed observations; missing
// optional lists default to empty rather than erroring.
func Extract(obs *observation.Observation, axis int) ([Size]float64, error) {
	var out [Size]float64
	if obs == nil {
		return out, ErrInvalidObservation
	}
	if obs.Territory == "" {
		return out, ErrInvalidObservation
	}

	i := 0
	put := func(v float64) {
		out[i] = v
		i++
	}

	// 0-3: entity counts, clipped and scaled to [0,1].
	put(clipRatio(float64(len(obs.MiningWorkers)), maxWorkerCount))
	put(clipRatio(float64(len(obs.WorkersPresent)), maxWorkerCount))
	put(clipRatio(float64(len(obs.Protectors)), maxProtectorCount))
	put(clipRatio(float64(len(obs.ParasitesEnd)), maxParasiteCount))

	// 4-9: aggregate (mean) positions for workers/protectors/parasites,
	// normalized x,y per group (0 when the group is empty).
	wx, wy := meanCoords(workerChunks(obs), axis)
	put(wx)
	put(wy)
	px, py := meanCoords(protectorChunksOf(obs), axis)
	put(px)
	put(py)
	zx, zy := meanCoords(parasiteChunks(obs.ParasitesEnd), axis)
	put(zx)
	put(zy)

	// 10-13: queen-energy ratio and player resource rates.
	put(clipRatio(obs.QueenEnergy.Current, 100.0))
	put(rate(obs.PlayerEnergy))
	put(rate(obs.PlayerMinerals))
	put(clipRatio(obs.PlayerMinerals.End, 1000.0))

	// 14-15: nearest-protector-to-hive, nearest-worker-to-hive normalized distance.
	put(nearestDistance(obs.QueenChunk, protectorChunksOf(obs), axis))
	put(nearestDistance(obs.QueenChunk, workerChunks(obs), axis))

	// 16-19: spatial spread (stddev of x,y) for workers and protectors.
	wsx, wsy := stddevCoords(workerChunks(obs), axis)
	put(wsx)
	put(wsy)
	psx, psy := stddevCoords(protectorChunksOf(obs), axis)
	put(psx)
	put(psy)

	// 20-22: parasite composition: energy count ratio, combat count ratio, start-of-tick parasite count ratio.
	energyCount, combatCount := 0, 0
	for _, p := range obs.ParasitesEnd {
		switch p.Type {
		case observation.SpawnTypeEnergy:
			energyCount++
		case observation.SpawnTypeCombat:
			combatCount++
		}
	}
	put(clipRatio(float64(energyCount), maxParasiteCount))
	put(clipRatio(float64(combatCount), maxParasiteCount))
	put(clipRatio(float64(len(obs.ParasitesStart)), maxParasiteCount))

	// 23-24: tick-phase features derived from the timestamp (stable, deterministic
	// for a given timestamp): fractional second and fractional minute.
	sec := float64(obs.Timestamp.Nanosecond()) / 1e9
	put(sec)
	minuteFrac := float64(obs.Timestamp.Second()) / 60.0
	put(minuteFrac)

	// 25-27: hive centrality — the hive's own normalized position and its
	// distance from the grid center, a stable spatial reference frame.
	hiveCoords := grid.ToCoords(obs.QueenChunk, axis)
	put(float64(hiveCoords.X) / float64(axis-1))
	put(float64(hiveCoords.Y) / float64(axis-1))
	put(grid.Normalize(grid.Distance(obs.QueenChunk, grid.ID((axis/2)*axis+axis/2), axis), axis))

	return out, nil
}

func clipRatio(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	r := v / max
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func rate(r observation.Range) float64 {
	delta := r.End - r.Start
	// Bound to [-1, 1] using a fixed, generous scale; extreme deltas
	// saturate rather than distort the rest of the vector.
	const scale = 200.0
	v := delta / scale
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func workerChunks(obs *observation.Observation) []grid.ID {
	ids := make([]grid.ID, 0, len(obs.WorkersPresent)+len(obs.MiningWorkers))
	for _, w := range obs.WorkersPresent {
		ids = append(ids, w.Chunk)
	}
	for _, w := range obs.MiningWorkers {
		ids = append(ids, w.Chunk)
	}
	return ids
}

func protectorChunksOf(obs *observation.Observation) []grid.ID {
	ids := make([]grid.ID, 0, len(obs.Protectors))
	for _, p := range obs.Protectors {
		ids = append(ids, p.Chunk)
	}
	return ids
}

func parasiteChunks(parasites []observation.Parasite) []grid.ID {
	ids := make([]grid.ID, 0, len(parasites))
	for _, p := range parasites {
		ids = append(ids, p.Chunk)
	}
	return ids
}

func meanCoords(ids []grid.ID, axis int) (x, y float64) {
	if len(ids) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, id := range ids {
		c := grid.ToCoords(id, axis)
		sx += float64(c.X)
		sy += float64(c.Y)
	}
	n := float64(len(ids))
	denom := float64(axis - 1)
	if denom <= 0 {
		denom = 1
	}
	return (sx / n) / denom, (sy / n) / denom
}

func stddevCoords(ids []grid.ID, axis int) (sx, sy float64) {
	if len(ids) == 0 {
		return 0, 0
	}
	mx, my := 0.0, 0.0
	for _, id := range ids {
		c := grid.ToCoords(id, axis)
		mx += float64(c.X)
		my += float64(c.Y)
	}
	n := float64(len(ids))
	mx /= n
	my /= n

	var vx, vy float64
	for _, id := range ids {
		c := grid.ToCoords(id, axis)
		vx += (float64(c.X) - mx) * (float64(c.X) - mx)
		vy += (float64(c.Y) - my) * (float64(c.Y) - my)
	}
	vx /= n
	vy /= n

	denom := float64(axis - 1)
	if denom <= 0 {
		denom = 1
	}
	return clipRatio(math.Sqrt(vx), denom), clipRatio(math.Sqrt(vy), denom)
}

func nearestDistance(from grid.ID, ids []grid.ID, axis int) float64 {
	if len(ids) == 0 {
		return 1
	}
	nearest := grid.MaxDistance(axis)
	for _, id := range ids {
		if d := grid.Distance(from, id, axis); d < nearest {
			nearest = d
		}
	}
	return grid.Normalize(nearest, axis)
}
