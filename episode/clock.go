package episode

import "time"

// Clock measures simulation time for the elapsed-since-goal term.
// Advance is called once at the end of every tick.
type Clock interface {
	Now() time.Duration
	Advance()
}

// WallClock follows real time; used when the loop is paced for a viewer.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() time.Duration {
	return time.Since(c.start)
}

func (c *WallClock) Advance() {}

// TickClock advances a fixed step per tick, so headless runs see the same time
// as a run paced at the tick rate, however fast they actually execute.
type TickClock struct {
	step  time.Duration
	ticks int64
}

func NewTickClock(tickRate int) *TickClock {
	return &TickClock{step: time.Second / time.Duration(tickRate)}
}

func (c *TickClock) Now() time.Duration {
	return time.Duration(c.ticks) * c.step
}

func (c *TickClock) Advance() {
	c.ticks++
}
