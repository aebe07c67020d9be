// Package atomicfloat provides a lock-free float64 box for counters and
// rolling values that are written by one producer and read by many.
package atomicfloat

import (
	"math"
	"sync/atomic"
)

// Float64 encapsulates a float64 for non-locking atomic operations.
// Generalized from a single-purpose state-value box into a standalone
// primitive; no other package in this repository imports it (the
// metrics aggregator and the replay buffer guard their state with
// mutexes instead).
type Float64 struct {
	bits atomic.Uint64
}

// New returns a Float64 initialized to val.
func New(val float64) *Float64 {
	f := &Float64{}
	f.bits.Store(math.Float64bits(val))
	return f
}

// Load atomically reads the float64.
func (f *Float64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add atomically adds addend, retrying until the compare-and-swap
// succeeds against whatever the current value is. Unlike a naive
// read-modify-write, this never silently drops a concurrent update:
// it recomputes against the latest observed value on each retry.
func (f *Float64) Add(addend float64) (newVal float64) {
	for {
		old := f.bits.Load()
		newVal = math.Float64frombits(old) + addend
		if f.bits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return newVal
		}
	}
}

// Store atomically sets the float64.
func (f *Float64) Store(val float64) {
	f.bits.Store(math.Float64bits(val))
}
