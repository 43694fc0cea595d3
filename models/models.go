// models holds the value types shared between the simulation components,
// the agent, and the views.
package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a point or direction in field coordinates. The field's origin is at
// (0,0) and x/y grow toward (width, height). It is the tagged wire and config form
// of r2.Vec, which does the arithmetic.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2(r2.Add(r2.Vec(v), r2.Vec(w)))
}

func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2(r2.Sub(r2.Vec(v), r2.Vec(w)))
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2(r2.Scale(s, r2.Vec(v)))
}

// Norm is the euclidean length of v.
func (v Vec2) Norm() float64 {
	return r2.Norm(r2.Vec(v))
}

// Dist is the euclidean distance between v and w.
func (v Vec2) Dist(w Vec2) float64 {
	return v.Sub(w).Norm()
}

// Polar returns the unit vector at the passed angle, in degrees.
func Polar(degrees float64) Vec2 {
	rad := degrees * math.Pi / 180
	return Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", v.X, v.Y)
}

// Observation indices. The order is part of the agent contract and must not change.
const (
	SignalFront = iota
	SignalLeft
	SignalRight
	Orientation
	NegOrientation
	Elapsed
	ObservationSize
)

// Observation is the fixed-length input vector handed to the agent each tick:
// three probe densities, the orientation-to-goal term and its negation, and the
// time elapsed since the last goal flip.
type Observation [ObservationSize]float64

// NewObservation assembles an observation in contract order.
func NewObservation(signals [3]float64, orientation, elapsed float64) Observation {
	return Observation{
		signals[0],
		signals[1],
		signals[2],
		orientation,
		-orientation,
		elapsed,
	}
}

// Action is the agent's output: an index into the steering table.
type Action int

const (
	Straight Action = iota
	TurnLeft
	TurnRight
	NumActions
)

// steering maps each action to its turn-rate delta in degrees.
var steering = [NumActions]float64{
	Straight:  0,
	TurnLeft:  20,
	TurnRight: -20,
}

// Valid reports whether the action indexes the steering table.
func (a Action) Valid() bool {
	return a >= 0 && a < NumActions
}

// Rotation returns the steering delta in degrees for this action.
// Actions outside the table steer straight.
func (a Action) Rotation() float64 {
	if !a.Valid() {
		return 0
	}
	return steering[a]
}

// Transition is a single SARSA-style time step of the agent: in state s it did
// action a, observed reward r and successor s'. Only the agent tracks these;
// the simulation never retains observations across ticks.
type Transition struct {
	State     Observation
	Action    Action
	Reward    float64
	Successor Observation
}
