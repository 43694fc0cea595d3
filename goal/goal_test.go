package goal

import (
	"testing"

	"sandcar/config"
	"sandcar/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArrive(t *testing.T) {
	Convey("Given a goal manager on the default field", t, func() {
		cfg := config.Default()
		m := NewManager(cfg.Goal, cfg.Field)
		start := models.Vec2{X: 20, Y: 20}
		mirror := models.Vec2{X: 780, Y: 580}
		So(m.Target(), ShouldResemble, start)

		Convey("A vehicle moving monotonically toward the goal flips it exactly once, when inside the radius", func() {
			pos := models.Vec2{X: 400, Y: 20}
			flipped := 0
			for pos.X > 20 {
				d := m.Distance(pos)
				wasInside := d < 100
				before := m.Target()
				if m.Arrive(d) {
					So(wasInside, ShouldBeTrue)
					So(before, ShouldResemble, start)
					So(m.Target(), ShouldResemble, mirror)
					flipped++
					break
				}
				So(wasInside, ShouldBeFalse)
				So(m.Target(), ShouldResemble, start)
				pos.X -= 6
			}
			So(flipped, ShouldEqual, 1)
			So(m.Flips(), ShouldEqual, 1)
			// The position that triggered the flip is 400 - 6k with 400 - 6k - 20 < 100.
			So(pos.X, ShouldEqual, 118)
		})

		Convey("A distance of exactly the radius does not flip", func() {
			So(m.Arrive(100), ShouldBeFalse)
			So(m.Target(), ShouldResemble, start)
		})

		Convey("Flipping twice returns to the start goal", func() {
			So(m.Arrive(0), ShouldBeTrue)
			So(m.Target(), ShouldResemble, mirror)
			So(m.Arrive(99.99), ShouldBeTrue)
			So(m.Target(), ShouldResemble, start)
			So(m.Flips(), ShouldEqual, 2)
		})
	})
}
