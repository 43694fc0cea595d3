package frame_views

import (
	"fmt"
	"html/template"

	"sandcar/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// VehicleView draws the field outline, the goal, the car and its three probes.
// It is stacked over the sand view and the paint canvas.
type VehicleView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewVehicleView(
	done <-chan struct{},
	scenes <-chan Scene,
) (vv *VehicleView) {
	vv = &VehicleView{id: "vehicle"}
	vv.updates = channerics.Convert(done, scenes, vv.onUpdate)
	return
}

func (vv *VehicleView) Updates() <-chan []fastview.EleUpdate {
	return vv.updates
}

func (vv *VehicleView) carId() string { return vv.id + "-car" }
func (vv *VehicleView) goalId() string { return vv.id + "-goal" }
func (vv *VehicleView) bodyId() string { return vv.id + "-body" }
func (vv *VehicleView) probeId(i int) string {
	return fmt.Sprintf("%s-probe-%d", vv.id, i)
}

func carTransform(s Scene) string {
	return fmt.Sprintf("translate(%d %d) rotate(%d)", s.CarX, s.CarY, s.CarRotation)
}

func (vv *VehicleView) onUpdate(s Scene) (ops []fastview.EleUpdate) {
	ops = append(ops,
		fastview.EleUpdate{
			EleId: vv.carId(),
			Ops:   []fastview.Op{{Key: "transform", Value: carTransform(s)}},
		},
		fastview.EleUpdate{
			EleId: vv.bodyId(),
			Ops:   []fastview.Op{{Key: "fill", Value: s.CarFill}},
		},
		fastview.EleUpdate{
			EleId: vv.goalId(),
			Ops: []fastview.Op{
				{Key: "cx", Value: fmt.Sprint(s.GoalX)},
				{Key: "cy", Value: fmt.Sprint(s.GoalY)},
			},
		},
	)
	for i, probe := range s.Probes {
		ops = append(ops, fastview.EleUpdate{
			EleId: vv.probeId(i),
			Ops: []fastview.Op{
				{Key: "cx", Value: fmt.Sprint(probe.X)},
				{Key: "cy", Value: fmt.Sprint(probe.Y)},
				{Key: "fill", Value: signalFill(s.Signals[i])},
			},
		})
	}
	return
}

// Parse adds the svg, positioned so the page's paint canvas can overlay it exactly.
func (vv *VehicleView) Parse(
	t *template.Template,
) (name string, err error) {
	name = vv.id
	_, err = t.Funcs(template.FuncMap{
		"carTransform": carTransform,
		"signalFill":   signalFill,
	}).Parse(
		`{{ define "` + name + `" }}
		<svg id="` + vv.id + `"
			width="{{ .Width }}" height="{{ .Height }}"
			style="position:absolute; left:0; top:0; pointer-events:none;">
			<rect x="0" y="0" width="{{ .Width }}" height="{{ .Height }}"
				fill="none" stroke="black" stroke-width="1"/>
			<circle id="` + vv.goalId() + `" cx="{{ .GoalX }}" cy="{{ .GoalY }}" r="8"
				fill="gold" stroke="black" stroke-width="1"/>
			{{ range $i, $p := .Probes }}
			<circle id="` + vv.id + `-probe-{{ $i }}" cx="{{ $p.X }}" cy="{{ $p.Y }}" r="4"
				fill="{{ signalFill (index $.Signals $i) }}"/>
			{{ end }}
			<g id="` + vv.carId() + `" transform="{{ carTransform . }}">
				<rect id="` + vv.bodyId() + `" x="-10" y="-5" width="20" height="10"
					fill="{{ .CarFill }}" stroke="black" stroke-width="1"/>
				<line x1="0" y1="0" x2="14" y2="0" stroke="black" stroke-width="2"/>
			</g>
		</svg>
		{{ end }}`)
	return
}
