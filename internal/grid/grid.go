// Package grid implements chunk<->coordinate conversions and the batched
// distance-matrix math the decision gate's cost function is built on.
//
// Grounded on the teacher's grid_world.Convert/Visit traversal style and
// on original_source's decision_gate/components/utils.py, generalized
// from a hardcoded CHUNKS_PER_AXIS=20 to a configured axis size so that
// policy_output_size = Size*Size + 1 always stays in lock-step (see
// SPEC_FULL.md §9, Open Question on grid size).
package grid

import "math"

// ID identifies a chunk: id = y*axis + x, in [0, axis*axis).
type ID int

// Coords are zero-indexed grid coordinates along each axis.
type Coords struct {
	X, Y int
}

// NoSpawn returns the sentinel chunk id representing "decline to spawn"
// for a grid of the given axis size: axis*axis.
func NoSpawn(axis int) ID {
	return ID(axis * axis)
}

// MaxDistance returns the maximum possible Euclidean distance between
// two chunks on an axis-by-axis grid: sqrt((axis-1)^2 * 2).
func MaxDistance(axis int) float64 {
	d := float64(axis - 1)
	return math.Sqrt(d*d*2)
}

// ToCoords converts a chunk id to (x, y) grid coordinates. Negative ids
// clamp to the origin, mirroring chunk_to_coords's treatment of negative
// ids in original_source/utils.py; ids at or past axis*axis are not
// range-checked.
func ToCoords(id ID, axis int) Coords {
	if id < 0 || axis <= 0 {
		return Coords{0, 0}
	}
	return Coords{X: int(id) % axis, Y: int(id) / axis}
}

// Distance returns the Euclidean distance between two chunks. A negative
// id on either side returns MaxDistance(axis), matching utils.py's
// chunk_distance treatment of invalid chunks as maximally far.
func Distance(a, b ID, axis int) float64 {
	if a < 0 || b < 0 {
		return MaxDistance(axis)
	}
	ca, cb := ToCoords(a, axis), ToCoords(b, axis)
	dx := float64(ca.X - cb.X)
	dy := float64(ca.Y - cb.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceMatrix computes the distance from every id in spawns to every
// id in targets, as a dense [len(spawns)][len(targets)]float64 array.
// Pre-allocating and computing this once (rather than per scalar
// distance call) is what lets the decision gate's SHOULD_SPAWN search
// run in O(axis^2) per gate call instead of O(axis^2) scalar calls, per
// SPEC_FULL.md §4.3's vectorization requirement.
func DistanceMatrix(spawns, targets []ID, axis int) [][]float64 {
	spawnCoords := make([]Coords, len(spawns))
	for i, s := range spawns {
		spawnCoords[i] = ToCoords(s, axis)
	}
	targetCoords := make([]Coords, len(targets))
	for i, t := range targets {
		targetCoords[i] = ToCoords(t, axis)
	}

	out := make([][]float64, len(spawns))
	for i, sc := range spawnCoords {
		row := make([]float64, len(targets))
		for j, tc := range targetCoords {
			if spawns[i] < 0 || targets[j] < 0 {
				row[j] = MaxDistance(axis)
				continue
			}
			dx := float64(sc.X - tc.X)
			dy := float64(sc.Y - tc.Y)
			row[j] = math.Sqrt(dx*dx + dy*dy)
		}
		out[i] = row
	}
	return out
}

// AllChunks returns every chunk id on an axis-by-axis grid, [0, axis*axis).
// Used as the default candidate set for the gate's SHOULD_SPAWN search.
func AllChunks(axis int) []ID {
	n := axis * axis
	ids := make([]ID, n)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Normalize bounds distance into [0,1] against the grid's max distance.
func Normalize(distance float64, axis int) float64 {
	max := MaxDistance(axis)
	if max <= 0 {
		return 0
	}
	n := distance / max
	if n > 1 {
		return 1
	}
	return n
}
