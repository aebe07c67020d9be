package gatecost

import (
	"sync"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
)

// ExplorationTracker keeps the last tick at which each chunk was spawned
// at, and derives a small bonus that decays to zero right after a spawn
// there and recovers toward a ceiling as ticks pass — a tie-breaker
// only, per spec.md §4.3 item 5; it never overrides danger or capacity
// since it participates only inside the weighted sum.
type ExplorationTracker struct {
	mu       sync.Mutex
	lastTick map[grid.ID]int64
	cfg      Config
}

// NewExplorationTracker returns a tracker with no recorded spawns.
func NewExplorationTracker(cfg Config) *ExplorationTracker {
	return &ExplorationTracker{
		lastTick: make(map[grid.ID]int64),
		cfg:      cfg,
	}
}

// SetConfig swaps the tracker's tunables, preserving recorded spawn
// history. Used by the gate's config-reload path.
func (t *ExplorationTracker) SetConfig(cfg Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// RecordSpawn marks chunk as spawned at at tick currentTick, resetting
// its bonus to zero going forward.
func (t *ExplorationTracker) RecordSpawn(chunk grid.ID, currentTick int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastTick[chunk] = currentTick
}

// Bonus returns the exploration bonus for chunk at currentTick: 0 right
// after a recorded spawn there, recovering linearly toward
// cfg.ExplorationCeiling over cfg.ExplorationRecoveryTicks, then held at
// the ceiling. A chunk with no recorded spawn is already at the ceiling.
func (t *ExplorationTracker) Bonus(chunk grid.ID, currentTick int64) float64 {
	t.mu.Lock()
	last, ok := t.lastTick[chunk]
	cfg := t.cfg
	t.mu.Unlock()

	if !ok {
		return cfg.ExplorationCeiling
	}

	elapsed := float64(currentTick - last)
	if elapsed < 0 {
		elapsed = 0
	}
	if cfg.ExplorationRecoveryTicks <= 0 {
		return cfg.ExplorationCeiling
	}
	frac := elapsed / cfg.ExplorationRecoveryTicks
	if frac > 1 {
		frac = 1
	}
	return cfg.ExplorationCeiling * frac
}

// BonusBatch returns Bonus for every candidate chunk at currentTick.
func (t *ExplorationTracker) BonusBatch(candidates []grid.ID, currentTick int64) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = t.Bonus(c, currentTick)
	}
	return out
}
