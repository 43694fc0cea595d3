package episode

import (
	"sandcar/models"
	"sandcar/sand"
	"sandcar/vehicle"
)

// Frame is an immutable snapshot of one tick, published to viewers. Signals and
// orientation are what the agent saw this tick; positions are after the move.
type Frame struct {
	Tick        int
	Position    models.Vec2
	Heading     float64
	Probes      [vehicle.NumProbes]models.Vec2
	Goal        models.Vec2
	Signals     [vehicle.NumProbes]float64
	Orientation float64
	Elapsed     float64
	Action      models.Action
	OnSand      bool
	Reward      float64
	Score       float64
	Width       int
	Height      int
	Brush       int
	// Sand is shared with the field and must not be modified.
	Sand        []sand.Stroke
	SandVersion int
}

func (l *Loop) snapshot(obs models.Observation, action models.Action, onSand bool) Frame {
	var score float64
	if n := len(l.scores); n > 0 {
		score = l.scores[n-1]
	}
	return Frame{
		Tick:     l.tick,
		Position: l.car.Position(),
		Heading:  l.car.Heading(),
		Probes:   l.car.Probes(),
		Goal:     l.goals.Target(),
		Signals: [vehicle.NumProbes]float64{
			obs[models.SignalFront],
			obs[models.SignalLeft],
			obs[models.SignalRight],
		},
		Orientation: obs[models.Orientation],
		Elapsed:     obs[models.Elapsed],
		Action:      action,
		OnSand:      onSand,
		Reward:      l.lastReward,
		Score:       score,
		Width:       l.cfg.Field.Width,
		Height:      l.cfg.Field.Height,
		Brush:       l.cfg.Field.BrushHalfWidth,
		Sand:        l.field.Strokes(),
		SandVersion: l.field.Version(),
	}
}
