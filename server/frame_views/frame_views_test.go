package frame_views

import (
	"bytes"
	"context"
	"html/template"
	"testing"
	"time"

	"sandcar/episode"
	"sandcar/models"
	"sandcar/sand"
	"sandcar/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func testFrame() episode.Frame {
	return episode.Frame{
		Tick:     12,
		Position: models.Vec2{X: 100.4, Y: 200.6},
		Heading:  89.6,
		Probes: [3]models.Vec2{
			{X: 100, Y: 230},
			{X: 85, Y: 226},
			{X: 115, Y: 226},
		},
		Goal:        models.Vec2{X: 20, Y: 20},
		Signals:     [3]float64{0, 0.5, 1},
		Orientation: -0.25,
		Reward:      -1,
		Score:       -0.5,
		OnSand:      true,
		Width:       800,
		Height:      600,
	}
}

func byId(updates []fastview.EleUpdate) map[string][]fastview.Op {
	ops := map[string][]fastview.Op{}
	for _, u := range updates {
		ops[u.EleId] = u.Ops
	}
	return ops
}

func TestConvert(t *testing.T) {
	Convey("When a frame is converted to a scene", t, func() {
		s := Convert(testFrame())
		So(s.CarX, ShouldEqual, 100)
		So(s.CarY, ShouldEqual, 201)
		So(s.CarRotation, ShouldEqual, 90)
		So(s.Probes[1], ShouldResemble, Point{X: 85, Y: 226})
		So(s.GoalX, ShouldEqual, 20)
		So(s.Width, ShouldEqual, 800)
		So(s.CarFill, ShouldEqual, "sienna")
		So(Convert(episode.Frame{}).CarFill, ShouldEqual, "steelblue")
	})

	Convey("Signal fills run from green to red", t, func() {
		So(signalFill(0), ShouldEqual, "rgb(0%,100%,0%)")
		So(signalFill(1), ShouldEqual, "rgb(100%,0%,0%)")
		So(signalFill(2), ShouldEqual, "rgb(100%,0%,0%)")
	})
}

func TestVehicleView(t *testing.T) {
	Convey("Given a vehicle view", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		scenes := make(chan Scene)
		vv := NewVehicleView(ctx.Done(), scenes)

		Convey("Each scene yields car, goal and probe updates", func() {
			go func() { scenes <- Convert(testFrame()) }()
			var updates []fastview.EleUpdate
			select {
			case updates = <-vv.Updates():
			case <-time.After(time.Second):
			}
			ops := byId(updates)
			So(ops["vehicle-car"], ShouldResemble, []fastview.Op{{Key: "transform", Value: "translate(100 201) rotate(90)"}})
			So(ops["vehicle-goal"][0].Value, ShouldEqual, "20")
			So(ops["vehicle-probe-2"][0].Value, ShouldEqual, "115")
			So(ops["vehicle-probe-2"][2].Value, ShouldEqual, "rgb(100%,0%,0%)")
		})

		Convey("The template renders the initial scene", func() {
			page := template.New("page")
			name, err := vv.Parse(page)
			So(err, ShouldBeNil)
			var out bytes.Buffer
			So(page.ExecuteTemplate(&out, name, Convert(testFrame())), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `id="vehicle-probe-1"`)
			So(out.String(), ShouldContainSubstring, `translate(100 201) rotate(90)`)
		})
	})
}

func TestTelemetryView(t *testing.T) {
	Convey("Given a telemetry view", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		scenes := make(chan Scene)
		tv := NewTelemetryView(ctx.Done(), scenes)

		Convey("Each scene updates the readout text", func() {
			go func() { scenes <- Convert(testFrame()) }()
			var updates []fastview.EleUpdate
			select {
			case updates = <-tv.Updates():
			case <-time.After(time.Second):
			}
			ops := byId(updates)
			So(ops["telemetry-tick"][0].Value, ShouldEqual, "12")
			So(ops["telemetry-reward"], ShouldResemble, []fastview.Op{
				{Key: "textContent", Value: "-1.00"},
				{Key: "fill", Value: "firebrick"},
			})
			So(ops["telemetry-signals"][0].Value, ShouldEqual, "0.00 0.50 1.00")
		})

		Convey("The template renders the initial scene", func() {
			page := template.New("page")
			name, err := tv.Parse(page)
			So(err, ShouldBeNil)
			var out bytes.Buffer
			So(page.ExecuteTemplate(&out, name, Convert(testFrame())), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "-0.500")
		})
	})
}

func TestSandView(t *testing.T) {
	strokes := []sand.Stroke{
		{A: models.Vec2{X: 10.2, Y: 20}, B: models.Vec2{X: 30, Y: 40.6}},
		{A: models.Vec2{X: 30, Y: 40.6}, B: models.Vec2{X: 50, Y: 40}},
	}

	Convey("Strokes render as move-line pairs", t, func() {
		So(sandPath(strokes), ShouldEqual, "M10 20 L30 41 M30 41 L50 40")
		So(sandPath(nil), ShouldEqual, "")
	})

	Convey("Given a sand view", t, func() {
		sv := &SandView{id: "sand"}
		scene := Scene{Tick: 1, Sand: strokes, SandVersion: 2, Brush: 5}

		Convey("The first scene always sends the path", func() {
			updates := sv.onUpdate(scene)
			So(updates, ShouldResemble, []fastview.EleUpdate{{
				EleId: "sand-path",
				Ops:   []fastview.Op{{Key: "d", Value: "M10 20 L30 41 M30 41 L50 40"}},
			}})

			Convey("An unchanged field is not resent between refreshes", func() {
				scene.Tick = 2
				So(sv.onUpdate(scene), ShouldBeNil)
			})

			Convey("An unchanged field is resent on a refresh tick", func() {
				scene.Tick = sandRefresh
				So(len(sv.onUpdate(scene)), ShouldEqual, 1)
			})

			Convey("A clear from elsewhere sends an empty path", func() {
				scene.Tick = 3
				scene.Sand = nil
				scene.SandVersion = 3
				So(sv.onUpdate(scene), ShouldResemble, []fastview.EleUpdate{{
					EleId: "sand-path",
					Ops:   []fastview.Op{{Key: "d", Value: ""}},
				}})
			})
		})

		Convey("The template renders the current strokes", func() {
			page := template.New("page")
			name, err := sv.Parse(page)
			So(err, ShouldBeNil)
			var out bytes.Buffer
			So(page.ExecuteTemplate(&out, name, scene), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, `id="sand-path" d="M10 20 L30 41 M30 41 L50 40"`)
			So(out.String(), ShouldContainSubstring, `stroke-width="10"`)
		})
	})

	Convey("Painted frames reach the sand view through its channel", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		scenes := make(chan Scene)
		sv := NewSandView(ctx.Done(), scenes)

		frame := testFrame()
		frame.Sand = strokes
		frame.SandVersion = 1
		go func() { scenes <- Convert(frame) }()
		var updates []fastview.EleUpdate
		select {
		case updates = <-sv.Updates():
		case <-time.After(time.Second):
		}
		So(byId(updates)["sand-path"][0].Value, ShouldEqual, "M10 20 L30 41 M30 41 L50 40")
	})
}
