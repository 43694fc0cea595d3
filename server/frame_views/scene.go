// frame_views contains views derived from the Scene view-model.
package frame_views

import (
	"fmt"
	"math"

	"sandcar/episode"
	"sandcar/sand"
	"sandcar/vehicle"
)

// Scene flattens an episode.Frame into values that drop straight into svg
// attributes and text. Simulation coordinates are used as-is, so the browser's
// y-down canvas and the field agree on where sand is painted.
type Scene struct {
	Tick          int
	Width, Height int
	CarX, CarY    int
	// Svg rotate() degrees; clockwise in a y-down frame, matching the heading.
	CarRotation int
	Probes      [vehicle.NumProbes]Point
	GoalX       int
	GoalY       int
	Signals     [vehicle.NumProbes]float64
	Orientation float64
	Reward      float64
	Score       float64
	OnSand      bool
	CarFill     string
	// Sand is shared with the simulation; views only read it.
	Sand        []sand.Stroke
	SandVersion int
	Brush       int
}

type Point struct {
	X, Y int
}

// Convert maps a frame to its scene.
func Convert(frame episode.Frame) (scene Scene) {
	scene = Scene{
		Tick:        frame.Tick,
		Width:       frame.Width,
		Height:      frame.Height,
		CarX:        round(frame.Position.X),
		CarY:        round(frame.Position.Y),
		CarRotation: round(frame.Heading),
		GoalX:       round(frame.Goal.X),
		GoalY:       round(frame.Goal.Y),
		Signals:     frame.Signals,
		Orientation: frame.Orientation,
		Reward:      frame.Reward,
		Score:       frame.Score,
		OnSand:      frame.OnSand,
		CarFill:     carFill(frame.OnSand),
		Sand:        frame.Sand,
		SandVersion: frame.SandVersion,
		Brush:       frame.Brush,
	}
	for i, probe := range frame.Probes {
		scene.Probes[i] = Point{X: round(probe.X), Y: round(probe.Y)}
	}
	return
}

func round(f float64) int {
	return int(math.Round(f))
}

func carFill(onSand bool) string {
	if onSand {
		return "sienna"
	}
	return "steelblue"
}

// signalFill shades a probe from green (clear) to red (fully sanded).
func signalFill(signal float64) string {
	red := int(100 * math.Min(math.Max(signal, 0), 1))
	return fmt.Sprintf("rgb(%d%%,%d%%,0%%)", red, 100-red)
}
