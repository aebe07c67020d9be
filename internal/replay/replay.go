// Package replay implements the experience-replay buffer: a bounded
// FIFO of (features, action, expected/actual reward) rows with
// per-territory pending-reward bookkeeping, per SPEC_FULL.md §4.5.
//
// Grounded structurally on other_examples' dqagent.go ExperienceBuffer
// (a capacity-bounded slice with Add/Sample), extended with the
// pending-reward lifecycle spec.md §4.5 requires and a semaphore-plus-
// timeout lock per SPEC_FULL.md §5's "typed error rather than blocking
// indefinitely" requirement.
package replay

import (
	"errors"
	"math/rand"
	"time"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
)

// ErrLockTimeout is returned when an operation cannot acquire the
// buffer's lock within its configured timeout.
var ErrLockTimeout = errors.New("replay: lock acquisition timed out")

// ErrNoPending is returned by UpdatePendingReward when the named
// territory has no outstanding pending experience.
var ErrNoPending = errors.New("replay: no pending experience for territory")

// Experience is one recorded (observation, action, reward) row.
// ActualReward is nil while pending; a non-nil value means the row is
// resolved and eligible for sampling.
type Experience struct {
	Features       [28]float64
	Chunk          grid.ID
	SpawnType      observation.SpawnType
	ExpectedReward float64
	ActualReward   *float64
	Territory      string
	Timestamp      time.Time
	ModelVersion   int64
}

// IsPending reports whether this experience still awaits its ground-truth reward.
func (e Experience) IsPending() bool {
	return e.ActualReward == nil
}

// Config tunes the buffer's capacity and lock-wait behavior.
type Config struct {
	Capacity    int           `mapstructure:"capacity"`
	LockTimeout time.Duration `mapstructure:"lockTimeout"`
}

// DefaultConfig returns spec.md §4.5's default capacity of 10k.
func DefaultConfig() Config {
	return Config{
		Capacity:    10000,
		LockTimeout: 50 * time.Millisecond,
	}
}

// Buffer is a bounded FIFO of experiences with one outstanding pending
// row per territory. Safe for concurrent use by one writer (the
// observation path, which both Adds and resolves pending rows) and one
// reader (the trainer, which Samples); the internal semaphore
// additionally protects against accidental concurrent writers.
type Buffer struct {
	sem     chan struct{} // one-token semaphore standing in for a mutex
	cfg     Config
	rows    []Experience
	head    int            // index of the oldest row, for FIFO eviction
	pending map[string]int // territory -> index into rows of its pending row
	rng     *rand.Rand
}

// New returns an empty buffer governed by cfg, with sampling order
// drawn from a time-seeded source.
func New(cfg Config) *Buffer {
	return NewWithSeed(cfg, time.Now().UnixNano())
}

// NewWithSeed returns an empty buffer whose Sample order is
// deterministic for a given seed, per spec.md §4.5's "deterministic
// under a given seed" requirement on any non-uniform sampling scheme
// (the seed also makes the default uniform scheme reproducible for
// tests).
func NewWithSeed(cfg Config, seed int64) *Buffer {
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	return &Buffer{
		sem:     sem,
		cfg:     cfg,
		rows:    make([]Experience, 0, cfg.Capacity),
		pending: make(map[string]int),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// lock acquires the buffer's semaphore token, or gives up after
// LockTimeout. Unlike a goroutine racing a mutex Lock against
// time.After, a lost select here never consumes the token: there is no
// orphaned acquisition to land later and wedge the buffer shut, since
// the losing case simply never receives from b.sem.
func (b *Buffer) lock() error {
	select {
	case <-b.sem:
		return nil
	case <-time.After(b.cfg.LockTimeout):
		return ErrLockTimeout
	}
}

func (b *Buffer) unlock() {
	b.sem <- struct{}{}
}

// Add inserts a new pending experience for its territory, evicting the
// oldest row if the buffer is at capacity. A territory may have only
// one pending row at a time; Add makes the new row the territory's
// pending row. A prior pending row stays stored but is no longer
// tracked as pending, so it is never resolved and never sampled.
func (b *Buffer) Add(exp Experience) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.unlock()

	exp.ActualReward = nil

	if len(b.rows) < b.cfg.Capacity {
		b.rows = append(b.rows, exp)
		idx := len(b.rows) - 1
		b.pending[exp.Territory] = idx
		return nil
	}

	// At capacity: evict the oldest row (FIFO) by overwriting in a ring.
	idx := b.head
	evicted := b.rows[idx]
	b.rows[idx] = exp
	b.head = (b.head + 1) % b.cfg.Capacity
	if evicted.IsPending() {
		if b.pending[evicted.Territory] == idx {
			delete(b.pending, evicted.Territory)
		}
	}
	b.pending[exp.Territory] = idx
	return nil
}

// UpdatePendingReward resolves the named territory's pending row with
// reward, making it eligible for sampling. Returns ErrNoPending if no
// pending row exists for that territory.
func (b *Buffer) UpdatePendingReward(territory string, reward float64) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.unlock()

	idx, ok := b.pending[territory]
	if !ok {
		return ErrNoPending
	}
	r := reward
	b.rows[idx].ActualReward = &r
	delete(b.pending, territory)
	return nil
}

// Capacity returns the buffer's configured maximum row count.
func (b *Buffer) Capacity() int {
	return b.cfg.Capacity
}

// Size returns the total number of rows currently stored, pending or resolved.
func (b *Buffer) Size() (int, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.unlock()
	return len(b.rows), nil
}

// PendingCount returns the number of territories with an outstanding pending row.
func (b *Buffer) PendingCount() (int, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.unlock()
	return len(b.pending), nil
}

// Clear discards every row and pending marker.
func (b *Buffer) Clear() error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.unlock()
	b.rows = b.rows[:0]
	b.head = 0
	b.pending = make(map[string]int)
	return nil
}

// Sample draws up to batchSize resolved (non-pending) experiences
// uniformly without replacement. If fewer than batchSize resolved rows
// exist, it returns all of them. Sampling never returns a pending row.
func (b *Buffer) Sample(batchSize int) ([]Experience, error) {
	if err := b.lock(); err != nil {
		return nil, err
	}
	defer b.unlock()

	resolved := make([]int, 0, len(b.rows))
	for i, r := range b.rows {
		if !r.IsPending() {
			resolved = append(resolved, i)
		}
	}

	b.rng.Shuffle(len(resolved), func(i, j int) { resolved[i], resolved[j] = resolved[j], resolved[i] })

	if batchSize > len(resolved) {
		batchSize = len(resolved)
	}
	out := make([]Experience, batchSize)
	for i := 0; i < batchSize; i++ {
		out[i] = b.rows[resolved[i]]
	}
	return out, nil
}
