package vehicle

import (
	"math"
	"testing"

	"sandcar/config"
	"sandcar/models"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestCar() *Car {
	return NewCar(config.Default().Vehicle)
}

func TestMove(t *testing.T) {
	Convey("Given a car at the default start", t, func() {
		car := newTestCar()
		cfg := config.Default().Vehicle

		Convey("Its probes are valid before the first move", func() {
			So(car.Probes()[ProbeFront], ShouldResemble, models.Vec2{X: cfg.StartX + cfg.ProbeDistance, Y: cfg.StartY})
		})

		Convey("Moving straight advances by the normal speed along the heading", func() {
			car.Move(0)
			So(car.Heading(), ShouldEqual, 0)
			So(car.Position().X, ShouldAlmostEqual, cfg.StartX+cfg.NormalSpeed, 1e-9)
			So(car.Position().Y, ShouldAlmostEqual, cfg.StartY, 1e-9)
		})

		Convey("Heading wraps modulo 360 for every steering command", func() {
			for _, action := range []models.Action{models.Straight, models.TurnLeft, models.TurnRight} {
				for h := 0.0; h < 360; h += 10 {
					c := newTestCar()
					c.heading = h
					c.Move(action.Rotation())
					want := math.Mod(h+action.Rotation()+360, 360)
					So(c.Heading(), ShouldAlmostEqual, want, 1e-9)
					So(c.Heading(), ShouldBeGreaterThanOrEqualTo, 0)
					So(c.Heading(), ShouldBeLessThan, 360)
				}
			}
		})

		Convey("Turning right from 0 yields 340", func() {
			car.Move(-20)
			So(car.Heading(), ShouldEqual, 340)
		})

		Convey("Probes lie at the probe distance on offsets 0, +30 and -30", func() {
			car.Move(20)
			car.Move(20)
			pos := car.Position()
			offsets := []float64{0, 30, -30}
			for i, probe := range car.Probes() {
				So(probe.Dist(pos), ShouldAlmostEqual, cfg.ProbeDistance, 1e-9)
				dir := probe.Sub(pos)
				angle := math.Atan2(dir.Y, dir.X) * 180 / math.Pi
				want := normalize(car.Heading() + offsets[i])
				So(normalize(angle), ShouldAlmostEqual, want, 1e-9)
			}
		})
	})
}

func TestSpeedAndClamp(t *testing.T) {
	Convey("Given a car", t, func() {
		car := newTestCar()

		Convey("Slowing switches to the slowed speed and back", func() {
			car.SetSlowed(true)
			So(car.Speed(), ShouldEqual, 1)
			car.SetSlowed(false)
			So(car.Speed(), ShouldEqual, 6)
		})

		Convey("Clamp leaves an inner car untouched", func() {
			So(car.Clamp(10, 800, 600), ShouldBeFalse)
			So(car.Position(), ShouldResemble, models.Vec2{X: 400, Y: 300})
		})

		Convey("Clamp pins each axis independently", func() {
			car.pos = models.Vec2{X: -3, Y: 700}
			So(car.Clamp(10, 800, 600), ShouldBeTrue)
			So(car.Position(), ShouldResemble, models.Vec2{X: 10, Y: 590})

			car.pos = models.Vec2{X: 795, Y: 300}
			So(car.Clamp(10, 800, 600), ShouldBeTrue)
			So(car.Position(), ShouldResemble, models.Vec2{X: 790, Y: 300})
		})

		Convey("Sensor points follow the car when it is clamped", func() {
			car.heading = 180
			car.pos = models.Vec2{X: 12, Y: 300}
			car.Move(0)
			So(car.Clamp(10, 800, 600), ShouldBeTrue)
			So(car.Position(), ShouldResemble, models.Vec2{X: 10, Y: 300})
			for _, probe := range car.Probes() {
				So(probe.Dist(car.Position()), ShouldAlmostEqual, car.cfg.ProbeDistance, 1e-9)
			}
		})
	})
}
