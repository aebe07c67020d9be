// Package simulator implements the deterministic, chunk-grid training
// environment: a tick loop that advances worker/protector/parasite
// state machines, resolves their interactions, mines resources and
// produces an observation.Observation each call, per SPEC_FULL.md §4.8.
//
// Unlike the teacher's dm-vev-adamant tick.go (a background-goroutine
// ticker.tickLoop/tick split), this simulator ticks cooperatively on
// the request path: Tick is called directly, with no ticker or
// goroutine of its own, per spec's "game simulator ticks cooperatively
// on the request path (no background thread)". The tickEntities/tick
// split and the active/sleeping-style partitioning of concerns are
// kept; only the driving loop is removed.
package simulator

import (
	"math/rand"
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// Config tunes one simulator instance's population, economy and pacing.
type Config struct {
	Axis int

	NumWorkers    int
	NumProtectors int
	MiningSpots   []grid.ID

	QueenStartEnergy float64
	QueenMaxEnergy   float64
	QueenEnergyRegen float64

	EnergyCost float64
	CombatCost float64

	FleeRadius   float64
	AggroRadius  float64
	FleeDuration int // ticks a worker stays FLEEING once triggered
	MiningTicks  int // ticks a worker spends MINING before returning to base
	MiningRate   float64 // resources produced per tick while MINING, split energy/minerals

	TickInterval time.Duration
	TurboMode    bool // not read by any code here; the cooperative caller decides pacing
}

// DefaultConfig returns reasonable defaults for an axis-sized grid,
// mirroring spec.md §4.8's named configuration knobs.
func DefaultConfig(axis int) Config {
	spots := make([]grid.ID, 0, 4)
	mid := axis / 2
	for _, c := range []grid.Coords{{X: mid, Y: mid}, {X: mid / 2, Y: mid / 2}} {
		spots = append(spots, grid.ID(c.Y*axis+c.X))
	}
	return Config{
		Axis:             axis,
		NumWorkers:       4,
		NumProtectors:    2,
		MiningSpots:      spots,
		QueenStartEnergy: 50,
		QueenMaxEnergy:   100,
		QueenEnergyRegen: 1.0,
		EnergyCost:       15,
		CombatCost:       25,
		FleeRadius:       3.0,
		AggroRadius:      4.0,
		FleeDuration:     5,
		MiningTicks:      8,
		MiningRate:       2.0,
		TickInterval:     100 * time.Millisecond,
		TurboMode:        false,
	}
}

// Simulator is a single territory's deterministic training environment.
type Simulator struct {
	cfg       Config
	territory string
	axis      int
	tick      int64
	rng       *rand.Rand

	workers    []*workerEntity
	protectors []*protectorEntity
	parasites  []*parasiteEntity

	nextParasiteID int

	queenEnergy  float64
	totalEnergy  float64
	totalMinerals float64
}

// New builds a Simulator for territory, seeded deterministically so
// identical seeds reproduce identical entity trajectories.
func New(territory string, cfg Config, seed int64) *Simulator {
	s := &Simulator{
		cfg:         cfg,
		territory:   territory,
		axis:        cfg.Axis,
		rng:         rand.New(rand.NewSource(seed)),
		queenEnergy: cfg.QueenStartEnergy,
	}
	s.Reshape(cfg.NumWorkers, cfg.NumProtectors)
	return s
}

// Reshape adjusts the worker/protector population to the given counts,
// per spec.md §4.8's curriculum requirement that "the simulator
// reshapes its entity population to match" on a phase transition.
// Shrinking drops the newest entities first; growing appends freshly
// spawned ones at the hive.
func (s *Simulator) Reshape(numWorkers, numProtectors int) {
	hive := grid.ID(0)

	for len(s.workers) < numWorkers {
		s.workers = append(s.workers, &workerEntity{
			Chunk:     hive,
			BaseChunk: hive,
			State:     observation.WorkerIdle,
		})
	}
	if len(s.workers) > numWorkers {
		s.workers = s.workers[:numWorkers]
	}

	for len(s.protectors) < numProtectors {
		s.protectors = append(s.protectors, &protectorEntity{
			Chunk:      hive,
			PatrolPath: s.defaultPatrolPath(),
			State:      observation.ProtectorPatrolling,
		})
	}
	if len(s.protectors) > numProtectors {
		s.protectors = s.protectors[:numProtectors]
	}
}

// defaultPatrolPath returns a patrol cycle ringing the hive, used to
// seed newly-spawned protectors.
func (s *Simulator) defaultPatrolPath() []grid.ID {
	axis := s.axis
	if axis <= 1 {
		return []grid.ID{grid.ID(0)}
	}
	return []grid.ID{
		grid.ID(0),
		grid.ID(axis - 1),
		grid.ID(axis*axis - 1),
		grid.ID(axis*(axis-1)),
	}
}

// SpawnParasite validates the queen's energy against type's cost,
// deducts it on success, appends a parasite and reports whether the
// spawn happened.
func (s *Simulator) SpawnParasite(chunk grid.ID, spawnType observation.SpawnType) bool {
	cost := s.cfg.EnergyCost
	if spawnType == observation.SpawnTypeCombat {
		cost = s.cfg.CombatCost
	}
	if s.queenEnergy < cost {
		return false
	}
	s.queenEnergy -= cost
	s.nextParasiteID++
	s.parasites = append(s.parasites, &parasiteEntity{
		ID:        s.nextParasiteID,
		Type:      spawnType,
		Chunk:     chunk,
		SpawnTime: time.Now(),
	})
	return true
}

// Tick advances every entity one step, resolves interactions, mines
// resources, regenerates queen energy and returns the resulting
// observation. It has no internal pacing of its own; the caller
// decides when to invoke it (spec.md §5's "ticks cooperatively on the
// request path").
func (s *Simulator) Tick() *observation.Observation {
	s.tick++

	startEnergy := s.totalEnergy
	startMinerals := s.totalMinerals

	parasitesStart := s.snapshotParasites()

	for _, w := range s.workers {
		s.tickWorker(w)
	}
	for _, p := range s.protectors {
		s.tickProtector(p)
	}

	s.resolveInteractions()
	s.mine()
	s.regenQueenEnergy()

	parasitesEnd := s.snapshotParasites()

	obs := &observation.Observation{
		Timestamp:      time.Now(),
		Territory:      s.territory,
		ParasitesStart: parasitesStart,
		ParasitesEnd:   parasitesEnd,
		PlayerEnergy:   observation.Range{Start: startEnergy, End: s.totalEnergy},
		PlayerMinerals: observation.Range{Start: startMinerals, End: s.totalMinerals},
		QueenChunk:     grid.ID(0),
	}
	obs.QueenEnergy.Current = s.queenEnergy

	for _, w := range s.workers {
		entry := observation.Worker{Chunk: w.Chunk, State: w.State}
		obs.WorkersPresent = append(obs.WorkersPresent, entry)
		if w.State == observation.WorkerMining {
			obs.MiningWorkers = append(obs.MiningWorkers, entry)
		}
	}
	for _, p := range s.protectors {
		obs.Protectors = append(obs.Protectors, observation.Protector{Chunk: p.Chunk, State: p.State})
	}

	return obs
}

func (s *Simulator) snapshotParasites() []observation.Parasite {
	out := make([]observation.Parasite, len(s.parasites))
	for i, p := range s.parasites {
		out[i] = observation.Parasite{Chunk: p.Chunk, Type: p.Type, SpawnTime: p.SpawnTime}
	}
	return out
}

func (s *Simulator) mine() {
	for _, w := range s.workers {
		if w.State != observation.WorkerMining {
			continue
		}
		w.CarriedResources += s.cfg.MiningRate
	}
}

func (s *Simulator) regenQueenEnergy() {
	s.queenEnergy += s.cfg.QueenEnergyRegen
	if s.queenEnergy > s.cfg.QueenMaxEnergy {
		s.queenEnergy = s.cfg.QueenMaxEnergy
	}
}

// resolveInteractions applies flee/aggro/destruction rules in a single
// pass over the current parasite set, per spec.md §4.8.
func (s *Simulator) resolveInteractions() {
	if len(s.parasites) == 0 {
		return
	}

	for _, w := range s.workers {
		if w.State == observation.WorkerFleeing {
			continue
		}
		for _, p := range s.parasites {
			if grid.Distance(w.Chunk, p.Chunk, s.axis) <= s.cfg.FleeRadius {
				w.PrevState = w.State
				w.State = observation.WorkerFleeing
				w.FleeTimer = s.cfg.FleeDuration
				break
			}
		}
	}

	for _, p := range s.parasites {
		var nearest *protectorEntity
		nearestDist := s.cfg.AggroRadius
		for _, pr := range s.protectors {
			if pr.State == observation.ProtectorChasing {
				continue
			}
			d := grid.Distance(pr.Chunk, p.Chunk, s.axis)
			if d <= nearestDist {
				nearest = pr
				nearestDist = d
			}
		}
		if nearest != nil {
			target := p.Chunk
			nearest.State = observation.ProtectorChasing
			nearest.ChaseTarget = &target
		}
	}

	surviving := s.parasites[:0]
	for _, p := range s.parasites {
		destroyed := false
		for _, pr := range s.protectors {
			if pr.Chunk == p.Chunk {
				destroyed = true
				pr.State = observation.ProtectorReturning
				pr.ChaseTarget = nil
				break
			}
		}
		if !destroyed {
			surviving = append(surviving, p)
		}
	}
	s.parasites = surviving
}

// QueenEnergy reports the queen's current energy.
func (s *Simulator) QueenEnergy() float64 { return s.queenEnergy }

// TickCount reports how many ticks have elapsed.
func (s *Simulator) TickCount() int64 { return s.tick }
