package simulator

import (
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// workerEntity is the simulator's internal worker state, a superset of
// observation.Worker carrying the bookkeeping fields spec.md §3 lists
// (target_chunk, base_chunk, flee_timer, mining_timer, carried_resources).
type workerEntity struct {
	Chunk            grid.ID
	TargetChunk      grid.ID
	BaseChunk        grid.ID
	State            observation.WorkerState
	PrevState        observation.WorkerState // restored when FLEEING expires
	FleeTimer        int
	MiningTimer      int
	CarriedResources float64
}

// protectorEntity is the simulator's internal protector state.
type protectorEntity struct {
	Chunk       grid.ID
	PatrolPath  []grid.ID
	PatrolIndex int
	ChaseTarget *grid.ID
	State       observation.ProtectorState
}

// parasiteEntity is the simulator's internal parasite record; ID is
// used only to distinguish otherwise-identical parasites within a tick.
type parasiteEntity struct {
	ID        int
	Type      observation.SpawnType
	Chunk     grid.ID
	SpawnTime time.Time
}

// tickWorker advances one worker's state machine by one step.
func (s *Simulator) tickWorker(w *workerEntity) {
	if w.State == observation.WorkerFleeing {
		w.FleeTimer--
		if w.FleeTimer <= 0 {
			w.State = w.PrevState
		}
		return
	}

	switch w.State {
	case observation.WorkerIdle:
		w.TargetChunk = s.pickMiningSpot()
		w.State = observation.WorkerTravelingToSpot

	case observation.WorkerTravelingToSpot:
		w.Chunk = stepToward(w.Chunk, w.TargetChunk, s.axis)
		if w.Chunk == w.TargetChunk {
			w.State = observation.WorkerMining
			w.MiningTimer = s.cfg.MiningTicks
		}

	case observation.WorkerMining:
		w.MiningTimer--
		if w.MiningTimer <= 0 {
			w.State = observation.WorkerReturningToBase
		}

	case observation.WorkerReturningToBase:
		w.Chunk = stepToward(w.Chunk, w.BaseChunk, s.axis)
		if w.Chunk == w.BaseChunk {
			s.totalEnergy += w.CarriedResources * 0.5
			s.totalMinerals += w.CarriedResources * 0.5
			w.CarriedResources = 0
			w.State = observation.WorkerIdle
		}
	}
}

// pickMiningSpot returns a configured mining spot, cycling
// deterministically by tick count when more than one is configured.
func (s *Simulator) pickMiningSpot() grid.ID {
	if len(s.cfg.MiningSpots) == 0 {
		return grid.ID(0)
	}
	return s.cfg.MiningSpots[int(s.tick)%len(s.cfg.MiningSpots)]
}

// tickProtector advances one protector's state machine by one step.
func (s *Simulator) tickProtector(p *protectorEntity) {
	switch p.State {
	case observation.ProtectorChasing:
		if p.ChaseTarget == nil {
			p.State = observation.ProtectorReturning
			return
		}
		p.Chunk = stepToward(p.Chunk, *p.ChaseTarget, s.axis)

	case observation.ProtectorReturning:
		dest := p.nextWaypoint()
		p.Chunk = stepToward(p.Chunk, dest, s.axis)
		if p.Chunk == dest {
			p.State = observation.ProtectorPatrolling
		}

	case observation.ProtectorPatrolling:
		dest := p.nextWaypoint()
		p.Chunk = stepToward(p.Chunk, dest, s.axis)
		if p.Chunk == dest {
			p.PatrolIndex = (p.PatrolIndex + 1) % len(p.PatrolPath)
		}
	}
}

func (p *protectorEntity) nextWaypoint() grid.ID {
	if len(p.PatrolPath) == 0 {
		return p.Chunk
	}
	return p.PatrolPath[p.PatrolIndex%len(p.PatrolPath)]
}

// stepToward moves one chunk's coordinates by at most one cell along
// each axis toward target, the coarse kinematic model spec.md §4.8
// calls for in place of exact physics.
func stepToward(from, target grid.ID, axis int) grid.ID {
	if from == target {
		return from
	}
	fc, tc := grid.ToCoords(from, axis), grid.ToCoords(target, axis)
	x, y := fc.X, fc.Y
	switch {
	case x < tc.X:
		x++
	case x > tc.X:
		x--
	}
	switch {
	case y < tc.Y:
		y++
	case y > tc.Y:
		y--
	}
	return grid.ID(y*axis + x)
}
