package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 that may be read and written from multiple goroutines
// without locking. The simulation loop is the only writer in practice; http handlers
// read it while ticks are running, so reads must never observe a torn value.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns an AtomicFloat64 holding val.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead returns the current value.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicSet unconditionally stores val.
func (af *AtomicFloat64) AtomicSet(val float64) {
	af.bits.Store(math.Float64bits(val))
}

// AtomicAdd attempts a single compare-and-swap of old+addend.
// If another writer changed the value in between, succeeded is false and nothing
// is written; the caller decides whether to retry, recompute or drop the update.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}
