// vehicle implements the car's kinematics: a fixed scalar speed, discrete
// steering deltas, and three forward-facing probe points.
package vehicle

import (
	"math"

	"sandcar/config"
	"sandcar/models"
)

// Probe indices, matching the observation's signal order.
const (
	ProbeFront = iota
	ProbeLeft
	ProbeRight
	NumProbes
)

// Car is the single simulated vehicle. It is mutated every tick by the episode
// loop and lives for the whole run.
type Car struct {
	cfg     config.VehicleConfig
	pos     models.Vec2
	heading float64 // degrees, in [0,360)
	speed   float64
	probes  [NumProbes]models.Vec2
}

// NewCar places a car at the configured start, heading 0, at normal speed.
func NewCar(cfg config.VehicleConfig) *Car {
	car := &Car{
		cfg:   cfg,
		pos:   models.Vec2{X: cfg.StartX, Y: cfg.StartY},
		speed: cfg.NormalSpeed,
	}
	car.updateProbes()
	return car
}

// Move applies a steering delta then advances one Euler step along the new heading.
func (car *Car) Move(rotation float64) {
	car.heading = normalize(car.heading + rotation)
	car.pos = car.pos.Add(models.Polar(car.heading).Scale(car.speed))
	car.updateProbes()
}

// Clamp keeps the car within margin of every field edge, each axis independently.
// It returns true if any edge was hit, in which case the probes are recomputed
// around the clamped position.
func (car *Car) Clamp(margin float64, width, height int) (hit bool) {
	clamp := func(v *float64, lo, hi float64) {
		if *v < lo {
			*v = lo
			hit = true
		}
		if *v > hi {
			*v = hi
			hit = true
		}
	}
	clamp(&car.pos.X, margin, float64(width)-margin)
	clamp(&car.pos.Y, margin, float64(height)-margin)
	if hit {
		car.updateProbes()
	}
	return
}

// SetSlowed selects the slowed or normal speed for the following moves.
func (car *Car) SetSlowed(slowed bool) {
	if slowed {
		car.speed = car.cfg.SlowedSpeed
		return
	}
	car.speed = car.cfg.NormalSpeed
}

func (car *Car) Position() models.Vec2 {
	return car.pos
}

// Heading is in degrees, in [0,360).
func (car *Car) Heading() float64 {
	return car.heading
}

func (car *Car) Speed() float64 {
	return car.speed
}

// Probes returns the probe points: front, left (+angle) and right (-angle).
func (car *Car) Probes() [NumProbes]models.Vec2 {
	return car.probes
}

func (car *Car) updateProbes() {
	offsets := [NumProbes]float64{0, car.cfg.ProbeAngle, -car.cfg.ProbeAngle}
	for i, offset := range offsets {
		dir := models.Polar(normalize(car.heading + offset))
		car.probes[i] = car.pos.Add(dir.Scale(car.cfg.ProbeDistance))
	}
}

// normalize wraps degrees into [0,360).
func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -tiny + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}
