package models

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestActions(t *testing.T) {
	Convey("Steering lookup", t, func() {
		So(Straight.Rotation(), ShouldEqual, 0)
		So(TurnLeft.Rotation(), ShouldEqual, 20)
		So(TurnRight.Rotation(), ShouldEqual, -20)

		Convey("Unknown actions steer straight", func() {
			So(Action(7).Valid(), ShouldBeFalse)
			So(Action(7).Rotation(), ShouldEqual, 0)
			So(Action(-1).Rotation(), ShouldEqual, 0)
		})
	})
}

func TestObservation(t *testing.T) {
	Convey("NewObservation orders its fields per the agent contract", t, func() {
		obs := NewObservation([3]float64{0.1, 0.2, 0.3}, 0.25, 4)
		So(obs, ShouldResemble, Observation{0.1, 0.2, 0.3, 0.25, -0.25, 4})
	})
}

func TestVec2(t *testing.T) {
	Convey("Vector helpers", t, func() {
		v := Vec2{X: 3, Y: 4}
		So(v.Norm(), ShouldEqual, 5)
		So(v.Dist(Vec2{}), ShouldEqual, 5)
		So(v.Add(Vec2{X: 1, Y: 1}), ShouldResemble, Vec2{X: 4, Y: 5})
		So(v.Scale(2), ShouldResemble, Vec2{X: 6, Y: 8})
		So(v.Sub(Vec2{X: 1, Y: 1}), ShouldResemble, Vec2{X: 2, Y: 3})

		p := Polar(90)
		So(p.X, ShouldAlmostEqual, 0, 1e-12)
		So(p.Y, ShouldAlmostEqual, 1, 1e-12)
		So(Polar(180).X, ShouldAlmostEqual, -1, 1e-12)
		So(math.Abs(Polar(33).Norm()-1), ShouldBeLessThan, 1e-12)
	})
}
