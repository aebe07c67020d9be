package simulator

// Phase is one stage of a training curriculum: a named population
// shape held for a fixed tick count. DurationTicks == -1 marks the
// terminal phase, held indefinitely, per spec.md §4.8.
type Phase struct {
	Name          string
	DurationTicks int
	NumWorkers    int
	NumProtectors int
}

// Curriculum walks an ordered list of Phases, reshaping a Simulator's
// population whenever a phase boundary is crossed.
type Curriculum struct {
	phases       []Phase
	idx          int
	ticksInPhase int
}

// NewCurriculum returns a Curriculum starting at phases[0]. phases
// must be non-empty.
func NewCurriculum(phases []Phase) *Curriculum {
	return &Curriculum{phases: phases}
}

// Current returns the active phase.
func (c *Curriculum) Current() Phase {
	return c.phases[c.idx]
}

// Advance applies one tick's worth of curriculum progress against sim,
// reshaping sim's population and returning true the tick a phase
// transition takes effect.
func (c *Curriculum) Advance(sim *Simulator) (transitioned bool) {
	phase := c.phases[c.idx]
	c.ticksInPhase++

	if phase.DurationTicks < 0 {
		return false
	}
	if c.ticksInPhase < phase.DurationTicks {
		return false
	}
	if c.idx == len(c.phases)-1 {
		return false
	}

	c.idx++
	c.ticksInPhase = 0
	next := c.phases[c.idx]
	sim.Reshape(next.NumWorkers, next.NumProtectors)
	return true
}

// Done reports whether the curriculum has reached its terminal phase.
func (c *Curriculum) Done() bool {
	return c.phases[c.idx].DurationTicks < 0 && c.idx == len(c.phases)-1
}
