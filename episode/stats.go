package episode

import (
	"sync/atomic"

	"sandcar/atomic_float"
)

// Stats mirrors a few loop values for readers on other goroutines (http handlers).
// The loop is the only writer.
type Stats struct {
	tick   atomic.Int64
	reward *atomic_float.AtomicFloat64
	score  *atomic_float.AtomicFloat64
	total  *atomic_float.AtomicFloat64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Tick         int64   `json:"tick"`
	LastReward   float64 `json:"lastReward"`
	RunningScore float64 `json:"runningScore"`
	TotalReward  float64 `json:"totalReward"`
}

func NewStats() *Stats {
	return &Stats{
		reward: atomic_float.NewAtomicFloat64(0),
		score:  atomic_float.NewAtomicFloat64(0),
		total:  atomic_float.NewAtomicFloat64(0),
	}
}

func (s *Stats) record(tick int, reward, score float64) {
	s.reward.AtomicSet(reward)
	s.score.AtomicSet(score)
	s.addReward(reward)
	s.tick.Store(int64(tick))
}

// addReward accumulates the lifetime reward total. The loop is the only writer, so
// the swap only fails if that ever changes; retrying keeps the sum exact either way.
func (s *Stats) addReward(reward float64) {
	for _, ok := s.total.AtomicAdd(reward); !ok; _, ok = s.total.AtomicAdd(reward) {
	}
}

// Snapshot reads each value atomically; the values may straddle a tick.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Tick:         s.tick.Load(),
		LastReward:   s.reward.AtomicRead(),
		RunningScore: s.score.AtomicRead(),
		TotalReward:  s.total.AtomicRead(),
	}
}
