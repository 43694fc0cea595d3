// episode runs the simulation tick: sense, decide, move, reward, and goal
// bookkeeping, in a fixed order.
package episode

import (
	"log"
	"math"

	"sandcar/config"
	"sandcar/goal"
	"sandcar/models"
	"sandcar/reinforcement"
	"sandcar/reward"
	"sandcar/sand"
	"sandcar/sensing"
	"sandcar/vehicle"

	"gonum.org/v1/gonum/floats"
)

// Loop owns the vehicle, the field, the goal and the agent for a run. None of its
// methods are safe for concurrent use; Run serializes commands with ticks.
type Loop struct {
	cfg     *config.Config
	agent   reinforcement.Agent
	clock   Clock
	car     *vehicle.Car
	field   *sand.Field
	sensors *sensing.Sensors
	goals   *goal.Manager
	stats   *Stats

	tick         int
	resetAt      float64
	lastReward   float64
	lastDistance float64
	scores       []float64
	frame        Frame
}

func NewLoop(cfg *config.Config, agent reinforcement.Agent, clock Clock) *Loop {
	field := sand.NewField(cfg.Field)
	l := &Loop{
		cfg:     cfg,
		agent:   agent,
		clock:   clock,
		car:     vehicle.NewCar(cfg.Vehicle),
		field:   field,
		sensors: sensing.NewSensors(cfg.Sensing, field),
		goals:   goal.NewManager(cfg.Goal, cfg.Field),
		stats:   NewStats(),
		resetAt: clock.Now().Seconds(),
	}
	l.frame = l.snapshot(models.Observation{}, models.Straight, false)
	return l
}

// Update runs one tick. The reward handed to the agent is always the one computed
// during the previous tick; the first tick hands it 0.
func (l *Loop) Update() {
	// (a) elapsed since the last goal flip
	elapsed := l.clock.Now().Seconds() - l.resetAt

	// (b)-(d) observation
	target := l.goals.Target()
	orientation := Orientation(l.car.Heading(), target.Sub(l.car.Position()))
	signals := l.sensors.Read(l.car.Probes())
	obs := models.NewObservation(signals, orientation, elapsed)

	// (e)-(g) decide and move
	action := l.agent.Decide(l.lastReward, obs)
	if !action.Valid() {
		log.Printf("episode: agent returned action %d, steering straight", action)
	}
	l.car.Move(action.Rotation())

	// (h)-(i) reward and speed
	distance := l.goals.Distance(l.car.Position())
	onSand := l.field.Occupied(l.car.Position())
	boundaryHit := l.car.Clamp(l.cfg.Reward.BoundaryMargin, l.cfg.Field.Width, l.cfg.Field.Height)
	out := reward.Evaluate(l.cfg.Reward, reward.Conditions{
		OnSand:       onSand,
		Distance:     distance,
		LastDistance: l.lastDistance,
		BoundaryHit:  boundaryHit,
		Elapsed:      elapsed,
	})
	l.car.SetSlowed(out.Slowed)
	l.lastReward = out.Reward

	// (j) arrival
	if l.goals.Arrive(distance) {
		l.resetAt = l.clock.Now().Seconds()
	}

	// (k)-(l)
	l.lastDistance = distance
	score := l.agent.RunningScore()
	l.scores = append(l.scores, score)

	l.tick++
	l.frame = l.snapshot(obs, action, onSand)
	l.stats.record(l.tick, l.lastReward, score)
	l.clock.Advance()
}

// Orientation is the angle between the heading and the direction to the goal,
// scaled to [0,1]: 0 when facing the goal, 1 when facing away. It is 0 when the
// car sits exactly on the goal.
func Orientation(heading float64, toGoal models.Vec2) float64 {
	v := []float64{toGoal.X, toGoal.Y}
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return 0
	}
	floats.Scale(1/norm, v)
	dir := models.Polar(heading)
	dot := floats.Dot([]float64{dir.X, dir.Y}, v)
	return math.Acos(math.Max(-1, math.Min(1, dot))) / math.Pi
}

// LastReward is the reward computed by the most recent tick, to be handed to the
// agent on the next one.
func (l *Loop) LastReward() float64 {
	return l.lastReward
}

// Scores is the agent's self-reported running score, one entry per tick.
func (l *Loop) Scores() []float64 {
	return append([]float64(nil), l.scores...)
}

func (l *Loop) Tick() int {
	return l.tick
}

func (l *Loop) Stats() *Stats {
	return l.stats
}

// Frame is the snapshot taken at the end of the last tick.
func (l *Loop) Frame() Frame {
	return l.frame
}
